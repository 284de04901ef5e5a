package options

// Sink receives advisory notices that do not stop normalization.
type Sink interface {
	Notice(message string)
}

// Notices collects advisory notices in emission order.
type Notices struct {
	Messages []string
}

func (n *Notices) Notice(message string) {
	n.Messages = append(n.Messages, message)
}

type discardSink struct{}

func (discardSink) Notice(string) {}
