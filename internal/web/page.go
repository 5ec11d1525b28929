package web

import "html/template"

// page renders the single-form UI: text box, Analyze button, output area.
var page = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>clinote</title>
<style>
body { font-family: sans-serif; max-width: 52rem; margin: 2rem auto; }
textarea { width: 100%; font-family: inherit; }
pre { background: #f4f4f4; padding: 1rem; min-height: 4.5em; white-space: pre-wrap; }
.error { color: #a00; }
</style>
</head>
<body>
<form method="post" action="/analyze">
<label for="text">Health Data:</label>
<textarea id="text" name="text" rows="8" placeholder="Type the clinical notes or patient report">{{.Input}}</textarea>
<button type="submit">Analyze</button>
</form>
<pre id="output"{{if .Error}} class="error"{{end}}>{{if .Error}}Error: {{.Error}}{{else}}{{.Output}}{{end}}</pre>
<p><small>model {{.Model}}</small></p>
</body>
</html>
`))

type pageData struct {
	Input  string
	Output string
	Error  string
	Model  string
}
