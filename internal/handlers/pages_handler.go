package handlers

import (
	"html/template"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Section struct {
	Heading string `json:"heading"`
	Body    string `json:"body"`
}

// Page is a static content page. It renders as HTML unless the client asks
// for JSON.
type Page struct {
	Title    string    `json:"title"`
	Updated  int       `json:"updated"`
	Sections []Section `json:"sections"`
}

var communityRules = Page{
	Title: "Community Usage Rules",
	Sections: []Section{
		{"Say it as it is", "Be honest and transparent. Share your genuine experiences without filtering the truth."},
		{"Be respectful", "Treat others with dignity. Harassment, hate speech, or disrespect will not be tolerated."},
		{"Use English language", "To ensure everyone understands, please communicate in English across the platform."},
		{"Don't expose your personal information", "Protect your privacy. Never share sensitive details like phone numbers or addresses publicly."},
		{"No fake/fraud/scam/spam content", "Keep the community clean. Misleading information, scams, and spam are strictly prohibited."},
		{"Always remember rule N04", "We cannot emphasize this enough: Your personal safety and privacy come first."},
	},
}

var privacyPolicy = Page{
	Title: "Privacy Policy",
	Sections: []Section{
		{"1. Introduction", "Welcome to UNILAK Community. We respect your privacy and are committed to protecting your personal data."},
		{"2. Information We Collect", "Identity data such as your username and role at the university, contact data such as your email address, technical data such as IP address and browser, and usage data such as the reviews you post."},
		{"3. How We Use Your Information", "To register you as a new user, to manage our relationship with you, to let you take part in reviews and announcements, and to protect the platform."},
		{"4. Data Security", "We have put in place appropriate security measures to prevent your personal data from being accidentally lost, used or accessed in an unauthorized way, altered or disclosed."},
		{"5. Your Rights", "You may request access, correction or erasure of your personal data. You can delete your account and everything you posted from the account page."},
		{"6. Contact Us", "If you have any questions about this privacy policy, contact us through the feedback or announcement forms available on the platform."},
	},
}

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html><head><title>{{.Title}} - UNILAK Community</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>{{.Title}}</h1>
<p>Last updated: {{.Updated}}</p>
{{range .Sections}}<h2>{{.Heading}}</h2>
<p>{{.Body}}</p>
{{end}}</body></html>`))

type PagesHandler struct {
	now func() time.Time
}

func NewPagesHandler() *PagesHandler {
	return &PagesHandler{now: time.Now}
}

func (h *PagesHandler) render(c *fiber.Ctx, p Page) error {
	p.Updated = h.now().Year()
	if c.Accepts(fiber.MIMETextHTML, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return c.JSON(p)
	}
	c.Type("html")
	return pageTemplate.Execute(c.Response().BodyWriter(), p)
}

func (h *PagesHandler) Rules(c *fiber.Ctx) error {
	return h.render(c, communityRules)
}

func (h *PagesHandler) Privacy(c *fiber.Ctx) error {
	return h.render(c, privacyPolicy)
}
