package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/authcore/pkg/assetx"
	"github.com/aussiebroadwan/authcore/pkg/mailx"
)

const (
	subjectResetPassword = "Reset password"
	subjectVerifyEmail   = "Email Verification"
	subjectTOTPSecret    = "Your 2FA Secret"

	qrAttachmentName = "qrCode.png"
	qrAssetFolder    = "qrcode"
)

var totpEmailTmpl = template.Must(template.New("totp").Parse(
	`<p>Scan this QR code to set up your 2FA: <img src="{{.Src}}" alt="2FA QR code"></p>`,
))

// Mailer composes the transactional emails and hands them to the delivery
// queue. Nothing here blocks on the mail transport.
type Mailer struct {
	Queue      *DeliveryQueue
	Sender     mailx.Sender
	Assets     assetx.Storage // optional
	AppBaseURL string
	Logger     *slog.Logger
}

// SendResetPassword queues the password reset link for to.
func (m *Mailer) SendResetPassword(to, token string) bool {
	link := m.link("/reset-password", token)
	text := fmt.Sprintf("Dear user,\nTo reset your password, click on this link: %s\n"+
		"If you did not request any password resets, then ignore this email.", link)

	return m.enqueue("email.reset_password", mailx.Message{
		To:      to,
		Subject: subjectResetPassword,
		Text:    text,
		Tag:     "reset-password",
	})
}

// SendVerification queues the email verification link for to.
func (m *Mailer) SendVerification(to, token string) bool {
	link := m.link("/verify-email", token)
	text := fmt.Sprintf("Dear user,\nTo verify your email, click on this link: %s\n"+
		"If you did not create an account, then ignore this email.", link)

	return m.enqueue("email.verify_email", mailx.Message{
		To:      to,
		Subject: subjectVerifyEmail,
		Text:    text,
		Tag:     "verify-email",
	})
}

// SendTOTPEnrollment queues one task that uploads the QR image and then
// emails it to the user. The image is always attached; when the upload
// succeeds the HTML body links the hosted copy, otherwise it references the
// attachment inline.
func (m *Mailer) SendTOTPEnrollment(userID, to string, qrPNG []byte) bool {
	return m.Queue.Enqueue("email.totp_enrollment", func(ctx context.Context) error {
		src := template.URL("cid:" + qrAttachmentName)

		if m.Assets != nil {
			obj, err := m.Assets.Upload(ctx, qrAssetFolder, userID+".png", qrPNG, "image/png")
			if err != nil {
				m.logger().Warn("qr code upload failed", "user_id", userID, "error", err)
			} else {
				src = template.URL(obj.URL)
			}
		}

		var body bytes.Buffer
		if err := totpEmailTmpl.Execute(&body, struct{ Src template.URL }{src}); err != nil {
			return fmt.Errorf("render totp email: %w", err)
		}

		return m.Sender.Send(ctx, mailx.Message{
			To:      to,
			Subject: subjectTOTPSecret,
			HTML:    body.String(),
			Tag:     "totp-enrollment",
			Attachments: []mailx.Attachment{{
				Name:        qrAttachmentName,
				ContentType: "image/png",
				ContentID:   qrAttachmentName,
				Content:     qrPNG,
			}},
		})
	})
}

func (m *Mailer) enqueue(name string, msg mailx.Message) bool {
	return m.Queue.Enqueue(name, func(ctx context.Context) error {
		return m.Sender.Send(ctx, msg)
	})
}

func (m *Mailer) link(path, token string) string {
	return strings.TrimRight(m.AppBaseURL, "/") + path + "?token=" + url.QueryEscape(token)
}

func (m *Mailer) logger() *slog.Logger {
	if m.Logger != nil {
		return m.Logger
	}
	return slog.Default()
}
