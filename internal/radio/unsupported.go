package radio

import "context"

// Unsupported is the no-op adapter resolved once at startup on platforms
// without a radio. Every operation fails with ErrUnsupported; state is
// permanently StateUnsupported.
type Unsupported struct{}

func (Unsupported) Supported() bool                  { return false }
func (Unsupported) State() State                     { return StateUnsupported }
func (Unsupported) OnStateChange(func(State)) func() { return func() {} }
func (Unsupported) StartAdvertising(string) error    { return ErrUnsupported }
func (Unsupported) UpdatePayload(string) error       { return ErrUnsupported }
func (Unsupported) StopAdvertising() error           { return nil }
func (Unsupported) StartScan(ScanHandler) error      { return ErrUnsupported }
func (Unsupported) StopScan() error                  { return nil }

func (Unsupported) ReadPayload(context.Context, string) (string, error) {
	return "", ErrUnsupported
}
