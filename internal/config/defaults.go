package config

import "time"

// Defaults for an unconfigured deployment.
const (
	DefaultSheetTab        = "OB-speakers"
	DefaultInterval        = 2 * time.Hour
	DefaultDebounce        = 24 * time.Hour
	DefaultTimestampLayout = "2006-01-02 15:04:05"
	DefaultSMTPPort        = 587
	DefaultIMAPMailbox     = "INBOX.Sent"
	DefaultSQLitePath      = ".sheetmail/sent.db"
	DefaultSubject         = "Speaker Follow-Up – {show}"
)

// Default column headers.
const (
	DefaultNameColumn      = "First_Name"
	DefaultEmailColumn     = "Email"
	DefaultShowColumn      = "Show"
	DefaultResponseColumn  = "Email-Response"
	DefaultStatusColumn    = "Status"
	DefaultTimestampColumn = "Follow-up Timestamp"
)

// Default row colors.
const (
	DefaultActionColor   = "#4a87e8"
	DefaultRejectedColor = "#ff0000"
	DefaultActiveColor   = "#00ffff"
	DefaultFinalColor    = "#ff0000"
	DefaultHaltColor     = "#ffff00"
)

// DefaultSignature is appended to every follow-up body.
const DefaultSignature = `
<p style="margin-top: 30px;">
Thanks &amp; Regards,<br>
<strong>{sender}</strong>
</p>
<p>If you would like to schedule a meeting with me,<br>
please use the link below:<br>
<a href="{meeting_url}" target="_blank">{meeting_url}</a>
</p>
<p style="font-size: 13px; color: #888;">
If you don't want to hear from me again, please let me know.
</p>
`

// DefaultFollowups are the follow-up bodies, sent in order.
var DefaultFollowups = []string{
	`<p>Thank you for submitting your interest to participate as a Speaker at the <strong>{show}</strong>.</p>
<p>To proceed with your application, we request you to register using the URL below:<br>
<a href="{registration_url}">{registration_url}</a></p>
<p>Please confirm once you have registered, and feel free to ask if you need any clarification.</p>`,

	`<p>Dear {name},</p>
<p>This is to follow up on your registration for the Speaking opportunity.<br>
Did you manage to register? If not, do you need any more information?</p>`,

	`<p>Dear {name},</p>
<p>I understand that sometimes, interest is expressed out of curiosity; however, it is not a burning desire.</p>
<p>If that is the case with you, then we can understand why you still haven't registered.</p>
<p>I do not want to flood your inbox with unnecessary messages. Can you please confirm if you are still looking to pursue this?</p>`,

	`<p>Dear {name},</p>
<p>We are eager to onboard you, but given the very time-sensitive nature of the business, we do not want to send unnecessary follow-ups.</p>
<p>I request you to kindly respond in a simple YES / NO.</p>`,
}
