package clinote

import (
	"io"

	"github.com/crimson-sun/clinote/internal/config"
)

type options struct {
	model     string
	revision  string
	endpoint  string
	token     string
	cacheDir  string
	offline   bool
	patterns  []string
	libPath   string
	threads   int
	maxSeqLen int
	progress  io.Writer
}

// Option configures a Clinote instance.
type Option func(*options)

// WithModel sets the hub model id or a local directory holding the export.
// Default: emilyalsentzer/Bio_ClinicalBERT.
func WithModel(id string) Option {
	return func(o *options) {
		o.model = id
	}
}

// WithModelDir loads the export in dir and never contacts the hub.
func WithModelDir(dir string) Option {
	return func(o *options) {
		o.model = dir
		o.offline = true
	}
}

// WithRevision pins a branch, tag or commit on the hub.
func WithRevision(rev string) Option {
	return func(o *options) {
		o.revision = rev
	}
}

// WithHub sets the hub base URL and an optional bearer token.
func WithHub(endpoint, token string) Option {
	return func(o *options) {
		o.endpoint = endpoint
		o.token = token
	}
}

// WithCacheDir sets where downloaded models are kept.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}

// WithOffline serves models from the cache only.
func WithOffline(offline bool) Option {
	return func(o *options) {
		o.offline = offline
	}
}

// WithFiles replaces the glob patterns of files fetched from the hub.
func WithFiles(patterns ...string) Option {
	return func(o *options) {
		o.patterns = patterns
	}
}

// WithRuntime sets the onnxruntime shared library path and the intra-op
// thread count. Zero threads uses the physical core count.
func WithRuntime(libPath string, threads int) Option {
	return func(o *options) {
		o.libPath = libPath
		o.threads = threads
	}
}

// WithMaxSeqLen overrides the model's context limit in tokens.
func WithMaxSeqLen(n int) Option {
	return func(o *options) {
		o.maxSeqLen = n
	}
}

// WithProgress shows download progress on w.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

func defaultOptions() options {
	d := config.Default()
	return options{
		model:    d.Model.ID,
		endpoint: d.Hub.Endpoint,
		cacheDir: d.Hub.CacheDir,
	}
}
