package email

import (
	"crypto/rand"
	"crypto/tls"
	"fmt"
	"math/big"
	"net/smtp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendOTPEmail(toEmail, toName, code string) error
	SendProjectAssignedEmail(toEmail, toName, projectTitle, role string) error
	SendProjectStatusEmail(toEmail, toName, projectTitle, status string) error
	SendProjectUpdateEmail(toEmail, toName, projectTitle string) error
	SendPasswordResetEmail(toEmail, toName, token string) error
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
	BaseURL   string // Base URL for the application
}

// EmailServiceImpl implements EmailService
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) EmailService {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// SendOTPEmail sends a one-time login code to the user
func (s *EmailServiceImpl) SendOTPEmail(toEmail, toName, code string) error {
	// If username or password is empty, log the email and code (for development only)
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("code", code).
			Msg("SMTP credentials not configured - OTP email not sent. Use the code above for testing.")

		// Return success for development purposes
		return nil
	}
	subject := "Your Login Code - Project Portal"

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Project Portal Login</h2>
				<p>Hello %s,</p>
				<p>Use the following one-time code to finish signing in:</p>

				<div style="text-align: center; margin: 30px 0;">
					<span style="font-size: 32px; letter-spacing: 8px; font-weight: bold;">%s</span>
				</div>

				<p>This code will expire in 5 minutes.</p>

				<p>If you did not try to sign in, please ignore this email.</p>

				<p>Best regards,<br>The Project Portal Team</p>
			</div>
		</body>
		</html>
	`, toName, code)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendProjectAssignedEmail notifies a user they were assigned a role on a new project
func (s *EmailServiceImpl) SendProjectAssignedEmail(toEmail, toName, projectTitle, role string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("projectTitle", projectTitle).
			Str("role", role).
			Msg("SMTP credentials not configured - project assignment email not sent.")
		return nil
	}
	subject := "New Project Assignment - Project Portal"

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">New Project Assignment</h2>
				<p>Hello %s,</p>
				<p>You have been assigned as <strong>%s</strong> for the project <strong>%s</strong>.</p>

				<p>Log in to the portal to see the details.</p>

				<p>Best regards,<br>The Project Portal Team</p>
			</div>
		</body>
		</html>
	`, toName, role, projectTitle)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendProjectStatusEmail notifies a student that their project was approved or rejected
func (s *EmailServiceImpl) SendProjectStatusEmail(toEmail, toName, projectTitle, status string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("projectTitle", projectTitle).
			Str("status", status).
			Msg("SMTP credentials not configured - project status email not sent.")
		return nil
	}
	subject := fmt.Sprintf("Project %s - Project Portal", status)

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Project Status Update</h2>
				<p>Hello %s,</p>
				<p>Your project <strong>%s</strong> has been <strong>%s</strong> by your mentor.</p>

				<p>Log in to the portal to see the details.</p>

				<p>Best regards,<br>The Project Portal Team</p>
			</div>
		</body>
		</html>
	`, toName, projectTitle, status)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendProjectUpdateEmail notifies a mentor that a project they supervise was updated
func (s *EmailServiceImpl) SendProjectUpdateEmail(toEmail, toName, projectTitle string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("projectTitle", projectTitle).
			Msg("SMTP credentials not configured - project update email not sent.")
		return nil
	}
	subject := "Project Updated - Project Portal"

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Project Updated</h2>
				<p>Hello %s,</p>
				<p>The project <strong>%s</strong> that you supervise has been updated by its team.</p>

				<p>Log in to the portal to review the changes.</p>

				<p>Best regards,<br>The Project Portal Team</p>
			</div>
		</body>
		</html>
	`, toName, projectTitle)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// SendPasswordResetEmail sends an email with a password reset link/token
func (s *EmailServiceImpl) SendPasswordResetEmail(toEmail, toName, token string) error {
	if s.config.Username == "" || s.config.Password == "" {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("token", token).
			Str("resetURL", fmt.Sprintf("%s/reset-password?token=%s", s.config.BaseURL, token)).
			Msg("SMTP credentials not configured - password reset email not sent. Use the token/URL above for testing.")
		return nil
	}
	subject := "Reset Your Password - Project Portal"

	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.config.BaseURL, token)

	body := fmt.Sprintf(`
		<html>
		<body>
			<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
				<h2 style="color: #333;">Password Reset Request</h2>
				<p>Hello %s,</p>
				<p>We received a request to reset your password. Click the button below to choose a new one:</p>

				<div style="text-align: center; margin: 30px 0;">
					<a href="%s" style="background-color: #4a86e8; color: white; padding: 12px 24px; text-decoration: none; border-radius: 4px; font-weight: bold;">Reset Password</a>
				</div>

				<p>This link will expire in 1 hour.</p>

				<p>If you did not request a password reset, please ignore this email.</p>

				<p>Best regards,<br>The Project Portal Team</p>
			</div>
		</body>
		</html>
	`, toName, resetURL)

	return s.sendHTMLEmail(toEmail, subject, body)
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(toEmail, subject, htmlBody string) error {
	// Set up authentication information
	auth := smtp.PlainAuth(
		"",
		s.config.Username,
		s.config.Password,
		s.config.Host,
	)

	// Set up email headers
	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.FromEmail)
	headers["To"] = toEmail
	headers["Subject"] = subject
	headers["MIME-Version"] = "1.0"
	headers["Content-Type"] = "text/html; charset=UTF-8"

	// Construct message
	message := ""
	for key, value := range headers {
		message += fmt.Sprintf("%s: %s\r\n", key, value)
	}
	message += "\r\n" + htmlBody

	serverAddress := s.config.Host + ":" + strconv.Itoa(s.config.Port)

	// Use TLS if configured
	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			InsecureSkipVerify: true,
			ServerName:         s.config.Host,
		}

		// Connect to the SMTP server with TLS
		conn, err := tls.Dial("tcp", serverAddress, tlsConfig)
		if err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
			return fmt.Errorf("failed to connect to SMTP server: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.config.Host)
		if err != nil {
			s.logger.Error().Err(err).Msg("Failed to create SMTP client")
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
		defer client.Quit()

		// Authenticate
		if err = client.Auth(auth); err != nil {
			s.logger.Error().Err(err).Msg("SMTP authentication failed")
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}

		// Set the sender and recipient
		if err = client.Mail(s.config.FromEmail); err != nil {
			return fmt.Errorf("failed to set sender: %w", err)
		}
		if err = client.Rcpt(toEmail); err != nil {
			return fmt.Errorf("failed to set recipient: %w", err)
		}

		// Send the email body
		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("failed to get data writer: %w", err)
		}
		_, err = w.Write([]byte(message))
		if err != nil {
			return fmt.Errorf("failed to write email message: %w", err)
		}
		err = w.Close()
		if err != nil {
			return fmt.Errorf("failed to close data writer: %w", err)
		}

		return nil
	}

	// Simple SMTP without TLS
	err := smtp.SendMail(
		serverAddress,
		auth,
		s.config.FromEmail,
		[]string{toEmail},
		[]byte(message),
	)
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

// GeneratePasswordResetToken generates a random token for password resets
func GeneratePasswordResetToken() (string, error) {
	// Using crypto/rand for secure random generation
	const chars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, 32)

	var err error
	for i := range result {
		var n *big.Int
		n, err = rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
		if err != nil {
			// Continue generation with less secure method but record the error
			result[i] = chars[int(time.Now().UnixNano()%int64(len(chars)))]
		} else {
			result[i] = chars[n.Int64()]
		}
	}

	if err != nil {
		return string(result), fmt.Errorf("secure random generation partially failed: %w", err)
	}

	return string(result), nil
}
