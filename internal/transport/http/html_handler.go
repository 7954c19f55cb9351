package http

import "net/http"

// homePage is the static landing page. It lists the endpoints so operators
// can confirm the server is up from a browser. Not part of the API surface.
const homePage = `<!DOCTYPE html>
<html>
<head>
    <title>NGC License Server</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #1F4E78; }
        .status { color: green; font-weight: bold; }
        .endpoint { background: #f5f5f5; padding: 10px; margin: 10px 0; border-left: 3px solid #1F4E78; }
    </style>
</head>
<body>
    <h1>NGC License Server</h1>
    <p class="status">Status: Online and Running</p>
    <h2>Available Endpoints:</h2>
    <div class="endpoint"><strong>POST /validate</strong> - Validate a license key</div>
    <div class="endpoint"><strong>POST /activate</strong> - Activate a license</div>
    <div class="endpoint"><strong>POST /generate</strong> - Generate new license (admin)</div>
    <div class="endpoint"><strong>GET /check/{license_key}</strong> - Check license status</div>
    <div class="endpoint"><strong>GET /stats</strong> - Usage statistics (admin)</div>
    <p><em>Next Generation Capital - License Management System</em></p>
</body>
</html>
`

// Home handles GET /.
func Home(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(homePage))
}
