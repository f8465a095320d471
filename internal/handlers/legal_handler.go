package handlers

import (
	"github.com/gofiber/fiber/v2"
)

type LegalHandler struct{}

func NewLegalHandler() *LegalHandler {
	return &LegalHandler{}
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - TextShift</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Privacy Policy</h1>
<p>Last updated: August 2026</p>
<h2>Information We Collect</h2>
<p>We collect your email address, subscription status, and the text you submit for transformation, along with usage counts needed to enforce plan limits.</p>
<h2>How We Use Your Information</h2>
<p>Submitted text is sent to our AI provider solely to produce your transformation and is stored in your history so you can revisit past results. We do not use your content to train models.</p>
<h2>Payments</h2>
<p>Payments are processed by Polar. We never see or store your card details; we only receive subscription status events.</p>
<h2>Data Storage</h2>
<p>Your data is stored securely on encrypted servers. We do not sell your personal information to third parties.</p>
<h2>Account Deletion</h2>
<p>You can delete your account and all associated data, including your transformation history, at any time from your account settings.</p>
<h2>Contact</h2>
<p>For questions about this policy, contact us at support@textshift.app</p>
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - TextShift</title>
<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>
</head><body>
<h1>Terms of Service</h1>
<p>Last updated: August 2026</p>
<h2>Acceptance</h2>
<p>By using TextShift, you agree to these terms.</p>
<h2>User Conduct</h2>
<p>You agree not to submit illegal or harmful content for transformation. Requests may be rejected by automated safety filters.</p>
<h2>Subscriptions and Usage Limits</h2>
<p>Each plan includes a monthly transformation allowance. Paid subscriptions are billed through Polar and renew automatically unless cancelled before the end of the current period. The Lifetime plan is a one-time purchase.</p>
<h2>Termination</h2>
<p>We may suspend or terminate accounts that violate these terms.</p>
<h2>Contact</h2>
<p>For questions, contact us at support@textshift.app</p>
</body></html>`)
}
