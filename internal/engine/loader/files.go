package loader

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/crimson-sun/clinote/internal/model"
)

// DefaultPatterns select the files a BERT classifier export needs.
var DefaultPatterns = []string{
	"*.onnx",
	"onnx/*.onnx",
	"vocab.txt",
	"config.json",
	"tokenizer_config.json",
}

// exportHint tells a first run how to turn a PyTorch checkpoint into
// something this package can load.
const exportHint = "export it first, e.g. `optimum-cli export onnx --model <id> " +
	"--task text-classification <dir>`, and pass <dir> as the model"

// graphPreference ranks ONNX file names; unlisted names rank last and are
// ordered lexically.
var graphPreference = []string{
	"model.onnx",
	"onnx/model.onnx",
	"model_quantized.onnx",
	"onnx/model_quantized.onnx",
}

// selectFiles filters repository file names by patterns and keeps a single
// ONNX graph. Names use forward slashes.
func selectFiles(names, patterns []string) ([]string, error) {
	var graphs, aux []string
	for _, name := range names {
		if !matchAny(patterns, name) {
			continue
		}
		if strings.HasSuffix(name, ".onnx") {
			graphs = append(graphs, name)
		} else {
			aux = append(aux, name)
		}
	}
	if len(graphs) == 0 {
		return nil, fmt.Errorf("no ONNX graph matching %v; %s", patterns, exportHint)
	}
	if !hasBase(aux, "vocab.txt") {
		return nil, fmt.Errorf("no vocab.txt matching %v", patterns)
	}
	sort.Strings(aux)
	return append([]string{pickGraph(graphs)}, aux...), nil
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func hasBase(names []string, base string) bool {
	for _, n := range names {
		if path.Base(n) == base {
			return true
		}
	}
	return false
}

func pickGraph(graphs []string) string {
	rank := func(name string) int {
		for i, p := range graphPreference {
			if name == p {
				return i
			}
		}
		return len(graphPreference)
	}
	sort.Slice(graphs, func(i, j int) bool {
		ri, rj := rank(graphs[i]), rank(graphs[j])
		if ri != rj {
			return ri < rj
		}
		return graphs[i] < graphs[j]
	})
	return graphs[0]
}

// localFiles globs dir for files matching patterns.
func localFiles(dir string, patterns []string) ([]string, error) {
	fsys := os.DirFS(dir)
	seen := make(map[string]bool)
	var names []string
	for _, p := range patterns {
		matches, err := doublestar.Glob(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				names = append(names, m)
			}
		}
	}
	return names, nil
}

// assign maps the selected names onto ModelFiles roles. The first name is
// the ONNX graph; aux files are recognised by base name, preferring the
// shallowest path.
func assign(dir string, selected []string) model.ModelFiles {
	files := model.ModelFiles{Dir: dir, Model: filepath.Join(dir, filepath.FromSlash(selected[0]))}
	for _, name := range selected[1:] {
		full := filepath.Join(dir, filepath.FromSlash(name))
		var dest *string
		switch path.Base(name) {
		case "vocab.txt":
			dest = &files.Vocab
		case "config.json":
			dest = &files.Config
		case "tokenizer_config.json":
			dest = &files.TokenizerConfig
		default:
			continue
		}
		if *dest == "" || depth(full) < depth(*dest) {
			*dest = full
		}
	}
	return files
}

func depth(p string) int {
	return strings.Count(filepath.ToSlash(p), "/")
}
