package server

import "html/template"

// The three fixed views: landing, success, error. Shared styling mirrors the
// gradient card look of the original pages.
const viewTemplates = `
{{define "style"}}
<style>
    body {
        font-family: Arial, sans-serif;
        display: flex;
        justify-content: center;
        align-items: center;
        height: 100vh;
        margin: 0;
        background: linear-gradient(135deg, #667eea 0%, #764ba2 100%);
    }
    .container {
        background: white;
        padding: 40px;
        border-radius: 10px;
        box-shadow: 0 4px 20px rgba(0,0,0,0.1);
        text-align: center;
        max-width: 400px;
    }
    .btn {
        background: linear-gradient(45deg, #833ab4, #fd1d1d, #fcb045);
        color: white;
        padding: 12px 30px;
        border-radius: 25px;
        font-size: 16px;
        text-decoration: none;
        display: inline-block;
    }
    .success { color: #28a745; }
    .error { color: #dc3545; }
    .user-info {
        background: #f8f9fa;
        padding: 20px;
        border-radius: 5px;
        margin: 20px 0;
        text-align: left;
    }
    a { color: #007bff; text-decoration: none; }
    h1 { color: #333; margin-bottom: 20px; }
</style>
{{end}}

{{define "index.html"}}
<!DOCTYPE html>
<html>
<head>
    <title>Instagram Auth</title>
    {{template "style"}}
</head>
<body>
    <div class="container">
        <h1>Instagram Authentication</h1>
        <a href="/auth/login" class="btn">Continue with Instagram</a>
    </div>
</body>
</html>
{{end}}

{{define "success.html"}}
<!DOCTYPE html>
<html>
<head>
    <title>Success - Instagram Auth</title>
    {{template "style"}}
</head>
<body>
    <div class="container">
        <h1 class="success">&#10003; Authentication Successful!</h1>
        <div class="user-info">
            <strong>User Details:</strong><br>
            ID: {{.Profile.ID}}<br>
            Username: {{.Profile.Username}}<br>
            Account Type: {{.Profile.AccountType}}
        </div>
        <p>Your data has been saved successfully.</p>
        <a href="/">&#8592; Back to Home</a>
    </div>
</body>
</html>
{{end}}

{{define "error.html"}}
<!DOCTYPE html>
<html>
<head>
    <title>Error - Instagram Auth</title>
    {{template "style"}}
</head>
<body>
    <div class="container">
        <h1 class="error">&#10007; Authentication Failed</h1>
        <p>{{.Message}}</p>
        <p>Please try again.</p>
        <a href="/">&#8592; Back to Home</a>
    </div>
</body>
</html>
{{end}}
`

func parseViewTemplates() *template.Template {
	return template.Must(template.New("views").Parse(viewTemplates))
}
