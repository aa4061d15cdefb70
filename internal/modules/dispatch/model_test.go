package dispatch

import "testing"

func TestCanResolve(t *testing.T) {
	terminals := []Status{StatusAccepted, StatusRejected, StatusExpired, StatusCanceled}

	for _, to := range terminals {
		if !CanResolve(StatusPending, to) {
			t.Errorf("pending → %s should be allowed", to)
		}
	}
	// Terminal states never move again, not even to another terminal state.
	for _, from := range terminals {
		for _, to := range append(terminals, StatusPending) {
			if CanResolve(from, to) {
				t.Errorf("%s → %s should be rejected", from, to)
			}
		}
	}
	if CanResolve(StatusPending, StatusPending) {
		t.Error("pending → pending should be rejected")
	}
}
