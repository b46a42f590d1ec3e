package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8"/>
<meta name="viewport" content="width=device-width, initial-scale=1"/>
<title>Sales Dashboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js"></script>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #1a1a2e; }
h1 { font-size: 1.4rem; }
.modern-table { border-collapse: collapse; width: 100%; max-width: 640px; }
.modern-table th, .modern-table td { text-align: left; padding: 0.4rem 0.8rem; border-bottom: 1px solid #ddd; }
.panel { margin-bottom: 2rem; }
</style>
</head>
<body data-on-load="@get('/sse/refresh-all')">
<h1>Sales Dashboard</h1>
<p>No frontend build found; serving the built-in live view.</p>
<div class="panel" id="regions-content">Loading regions…</div>
<div class="panel" id="trends-content"></div>
<button data-on-click="@get('/sse/refresh-all')">Refresh</button>
</body>
</html>`

// Dashboard is the built-in page served at / when no frontend build is
// present. It wires the datastar SSE endpoints for a minimal live view.
func Dashboard() templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, dashboardHTML)
		return err
	})
}
