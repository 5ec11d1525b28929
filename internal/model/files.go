package model

// ModelFiles are the local paths of a resolved model. Config and
// TokenizerConfig are optional and may be empty.
type ModelFiles struct {
	ID              string // identifier the files were resolved from
	Revision        string // hub revision, empty for local directories
	Dir             string
	Model           string // ONNX graph
	Vocab           string // WordPiece vocab.txt
	Config          string // config.json
	TokenizerConfig string // tokenizer_config.json
}
