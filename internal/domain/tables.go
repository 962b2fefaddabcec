package domain

var Tables = []interface{}{
	// Verification
	&OtpRequest{},
	&ApprovalRequest{},
	// Messaging
	&BroadcastLog{},
	// Session
	&WhatsAppDevice{},
}
