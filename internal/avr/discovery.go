package avr

import (
	"context"
	"time"
)

// Input-name discovery parameters.
const (
	// discoveryInputCount is how many input slots are queried. Anthem
	// receivers expose at most 15 configurable inputs over IP control.
	discoveryInputCount = 15

	// discoveryQueryDelay paces consecutive ISN queries.
	discoveryQueryDelay = 50 * time.Millisecond

	// discoveryTimeout bounds the wait for all replies.
	discoveryTimeout = 3 * time.Second

	// discoveryPollInterval is how often the reply set is re-checked.
	discoveryPollInterval = 100 * time.Millisecond
)

// discoverInputs queries the name of every input slot and waits for the
// replies to land in the cache. Slots the receiver never answers for are
// left undiscovered; InputName falls back to a positional label for them.
func (c *Client) discoverInputs(ctx context.Context) {
	for i := 1; i <= discoveryInputCount; i++ {
		if !c.SendCommand(InputNameQueryCommand(i)) {
			c.logWarn("input discovery aborted, send failed", "input", i)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-c.done.Done():
			return
		case <-time.After(discoveryQueryDelay):
		}
	}

	deadline := time.Now().Add(discoveryTimeout)
	for {
		found := c.cache.InputNames()
		if len(found) >= discoveryInputCount {
			c.logInfo("input discovery complete", "inputs", len(found))
			return
		}

		if time.Now().After(deadline) {
			missing := make([]int, 0, discoveryInputCount-len(found))
			for i := 1; i <= discoveryInputCount; i++ {
				if _, ok := found[i]; !ok {
					missing = append(missing, i)
				}
			}
			c.logWarn("input discovery timed out",
				"found", len(found), "queried", discoveryInputCount,
				"missing", missing)
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-c.done.Done():
			return
		case <-time.After(discoveryPollInterval):
		}
	}
}
