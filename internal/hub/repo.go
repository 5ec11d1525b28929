package hub

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
)

// RepoInfo is the subset of /api/models/{id} this package uses.
type RepoInfo struct {
	ID       string    `json:"id"`
	SHA      string    `json:"sha"`
	Siblings []Sibling `json:"siblings"`
}

// Sibling is one file in a model repository.
type Sibling struct {
	Name string `json:"rfilename"`
}

// Files returns the repository-relative file names.
func (r RepoInfo) Files() []string {
	names := make([]string, len(r.Siblings))
	for i, s := range r.Siblings {
		names[i] = s.Name
	}
	return names
}

// ValidateID rejects identifiers that could escape the cache directory.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("hub: empty model id")
	}
	if strings.HasPrefix(id, "/") || strings.Contains(id, "..") || strings.Contains(id, "\\") {
		return fmt.Errorf("hub: invalid model id %q", id)
	}
	return nil
}

// escapePath escapes each segment of an id or file path but keeps slashes.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

// Repo fetches repository metadata. An empty revision means the default branch.
func (c *Client) Repo(ctx context.Context, id, revision string) (RepoInfo, error) {
	if err := ValidateID(id); err != nil {
		return RepoInfo{}, err
	}
	path := "/api/models/" + escapePath(id)
	if revision != "" {
		path += "/revision/" + url.PathEscape(revision)
	}
	var info RepoInfo
	if err := c.GetJSON(ctx, path, nil, &info); err != nil {
		return RepoInfo{}, fmt.Errorf("hub: model %s: %w", id, err)
	}
	if info.SHA == "" {
		info.SHA = revision
	}
	return info, nil
}

// Download writes one repository file to dest. The file is written to a
// temporary sibling first so an interrupted download never leaves a
// truncated file behind.
func (c *Client) Download(ctx context.Context, id, revision, file, dest string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if revision == "" {
		revision = "main"
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("hub: %w", err)
	}

	path := "/" + escapePath(id) + "/resolve/" + url.PathEscape(revision) + "/" + escapePath(file)
	tmp := dest + ".part"
	err := c.do(ctx, path, nil, func(resp *http.Response) error {
		f, err := os.Create(tmp)
		if err != nil {
			return err
		}
		var w io.Writer = f
		if c.progress != nil {
			bar := progressbar.NewOptions64(resp.ContentLength,
				progressbar.OptionSetWriter(c.progress),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription(file),
				progressbar.OptionClearOnFinish(),
			)
			defer bar.Finish()
			w = io.MultiWriter(f, bar)
		}
		if _, err := io.Copy(w, resp.Body); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("hub: download %s/%s: %w", id, file, err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("hub: %w", err)
	}
	return nil
}
