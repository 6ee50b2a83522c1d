package status

import (
	"context"
	"fmt"
	htmltemplate "html/template"
	"log"
	"net/http"
	"time"

	"github.com/PowerDNS/descstore/config"
	"github.com/PowerDNS/descstore/service"
	"github.com/PowerDNS/descstore/store"
)

// Page is the HTML status page
type Page struct {
	c   config.Config
	svc *service.Service
}

const statusTemplateString = `<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<title>descstore status</title>
	<style>
		body          { font-family: sans-serif; }
		table, td, th { border: 1px solid #ccc; border-collapse: collapse; }
		td, th        { padding: 5px; text-align: left; }
		td.count      { text-align: right; }
		p.error       { background-color: #ffb8b8; padding: 5px; }
		a             { text-decoration: none; color: #3c6ac5; }
	</style>
</head>
<body>
	<h1>descstore status</h1>
	<p>
		<a href="/metrics">Prometheus metrics</a> |
		<a href="/healthz">Health</a> |
		<a href="/api/descriptions">Descriptions</a>
	</p>

	{{ if .Err }}<p class="error">{{ .Err }}</p>{{ end }}

	<h2>Table {{ .Table }}</h2>
	<p>{{ .Count }} rows</p>

	<h2>Recent loads</h2>
	<table>
		<tr><th>Loaded at</th><th>Source</th><th>Rows</th><th>Load ID</th></tr>
		{{- range .History }}
		<tr>
			<td>{{ .LoadedAt }}</td>
			<td>{{ .Source }}</td>
			<td class="count">{{ .Count }}</td>
			<td>{{ .LoadID }}</td>
		</tr>
		{{- end }}
	</table>

	<h2>Config</h2>
	<pre>{{ .Config.String }}</pre>

	<p>Version {{ .Config.Version }}</p>
</body>
</html>`

var statusTemplate *htmltemplate.Template

func init() {
	var err error
	statusTemplate, err = htmltemplate.New("status").Parse(statusTemplateString)
	if err != nil {
		log.Fatalf("BUG: Error in status HTML template: %v", err)
	}
}

func (p *Page) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	data := struct {
		Config  config.Config
		Table   string
		Count   int64
		History []store.LoadHistory
		Err     error
	}{
		Config: p.c,
		Table:  p.svc.Store().Table(),
	}
	data.Count, data.Err = p.svc.Count(ctx)
	if data.Err == nil {
		data.History, data.Err = p.svc.History(ctx, 10)
	}

	err := statusTemplate.Execute(w, data)
	if err != nil {
		w.WriteHeader(500)
		_, _ = w.Write([]byte(fmt.Sprintf("Template execution error: %v", err)))
	}
}
