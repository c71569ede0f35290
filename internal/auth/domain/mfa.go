package domain

// TOTPEnrollment is what a user needs to add the account to an
// authenticator app. The secret itself only travels inside the QR image.
type TOTPEnrollment struct {
	QRCodePNG     []byte
	QRCodeDataURL string
}
