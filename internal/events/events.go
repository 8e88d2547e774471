package events

// Notifier receives engine notifications for external observability. Each
// callback is invoked synchronously, strictly after the mutation it reports;
// it never participates in control flow and must not fail the operation.
type Notifier interface {
	StakeAdded(account, packageName string, amount int64, index int)
	StakeWithdrawn(account string, index int, paid int64)
	Released(beneficiary string, amount int64)
	Revoked(owner, refundTo string, refunded int64)
}

// Nop discards all notifications.
type Nop struct{}

func (Nop) StakeAdded(string, string, int64, int) {}
func (Nop) StakeWithdrawn(string, int, int64)     {}
func (Nop) Released(string, int64)                {}
func (Nop) Revoked(string, string, int64)         {}

// Multi fans a notification out to several sinks in order.
type Multi []Notifier

func (m Multi) StakeAdded(account, packageName string, amount int64, index int) {
	for _, n := range m {
		n.StakeAdded(account, packageName, amount, index)
	}
}

func (m Multi) StakeWithdrawn(account string, index int, paid int64) {
	for _, n := range m {
		n.StakeWithdrawn(account, index, paid)
	}
}

func (m Multi) Released(beneficiary string, amount int64) {
	for _, n := range m {
		n.Released(beneficiary, amount)
	}
}

func (m Multi) Revoked(owner, refundTo string, refunded int64) {
	for _, n := range m {
		n.Revoked(owner, refundTo, refunded)
	}
}
