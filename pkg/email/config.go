package email

// Config holds delivery channel configuration.
// The Postmark tokens are optional so development environments can run with
// the dev sender; SenderEmail establishes the From identity of all outbound
// mail and is always required.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SenderName           string `env:"SENDER_NAME" envDefault:"GBI AVIA"`
	ReplyToEmail         string `env:"REPLY_TO_EMAIL"`
}
