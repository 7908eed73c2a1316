package storefront

// NoopObserver is a no-operation implementation of Observer
type NoopObserver struct{}

// NewNoopObserver creates a new no-operation observer
func NewNoopObserver() Observer {
	return &NoopObserver{}
}

// ImageUploadFailed does nothing
func (n *NoopObserver) ImageUploadFailed(op string) {}

// ImageDeleteFailed does nothing
func (n *NoopObserver) ImageDeleteFailed(op string) {}

// MailSendFailed does nothing
func (n *NoopObserver) MailSendFailed() {}
