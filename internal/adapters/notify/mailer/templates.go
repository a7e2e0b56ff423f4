package mailer

import "html/template"

const layout = `<!DOCTYPE html>
<html>
<head>
<style>
  body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
  .container { max-width: 600px; margin: 0 auto; padding: 20px; }
  .content { background: #f9fafb; padding: 30px; border-radius: 10px; }
  .button { display: inline-block; padding: 12px 30px; background: #10b981; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
  .footer { text-align: center; margin-top: 20px; color: #6b7280; font-size: 12px; }
</style>
</head>
<body>
<div class="container">
  <div class="content">{{template "content" .}}</div>
  <div class="footer"><p>&copy; {{.Year}} {{.App}}. All rights reserved.</p></div>
</div>
</body>
</html>`

const approvalContent = `{{define "content"}}
<h2>Congratulations {{.Name}}!</h2>
<p>Your application to adopt <strong>{{.Pet}}</strong> has been approved.</p>
<p><strong>Reviewed by:</strong> {{.Reviewer}}</p>
<p><strong>Next steps:</strong></p>
<ol>
  <li>We will contact you within 24-48 hours with further instructions</li>
  <li>Please prepare your home for {{.Pet}}'s arrival</li>
  <li>Have all necessary supplies ready</li>
</ol>
<p>Thank you for giving {{.Pet}} a loving home!</p>
{{end}}`

const rejectionContent = `{{define "content"}}
<h2>Hello {{.Name}},</h2>
<p>Thank you for your interest in adopting <strong>{{.Pet}}</strong>.
Unfortunately your application was not approved this time.</p>
<p><strong>Reviewed by:</strong> {{.Reviewer}}</p>
<p>There are many other pets waiting for a home. We encourage you to browse our catalog again.</p>
{{end}}`

const resetContent = `{{define "content"}}
<h2>Hello {{.Name}},</h2>
<p>We received a request to reset your password. Click the button below to reset it:</p>
<a href="{{.URL}}" class="button">Reset Password</a>
<p>Or copy and paste this link into your browser:</p>
<p style="word-break: break-all; color: #10b981;">{{.URL}}</p>
<p><strong>This link will expire in {{.TTL}}.</strong></p>
<p>If you didn't request a password reset, please ignore this email.</p>
{{end}}`

var (
	approvalTmpl  = template.Must(template.Must(template.New("approval").Parse(layout)).Parse(approvalContent))
	rejectionTmpl = template.Must(template.Must(template.New("rejection").Parse(layout)).Parse(rejectionContent))
	resetTmpl     = template.Must(template.Must(template.New("reset").Parse(layout)).Parse(resetContent))
)

type mailData struct {
	App      string
	Year     int
	Name     string
	Pet      string
	Reviewer string
	URL      string
	TTL      string
}
