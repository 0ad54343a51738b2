package filefield

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// PollInterval is the pause between SDK lookups.
	PollInterval = 100 * time.Millisecond

	// MaxWaits bounds the number of pauses, about five seconds in total.
	MaxWaits = 50
)

var (
	// ErrSDKNotLoaded is returned when the SDK never appears.
	ErrSDKNotLoaded = errors.New("ApperSDK not loaded. Please ensure the SDK script is included before this component.")

	// ErrNoFileField is returned when the SDK lacks the file-field capability.
	ErrNoFileField = errors.New("ApperFileUploader not available in ApperSDK.")
)

// waitForSDK polls locate until it returns an SDK, pausing interval between
// lookups and giving up after maxWaits pauses. A nil timer uses wall time.
func waitForSDK(ctx context.Context, locate Locator, interval time.Duration, maxWaits int, timer backoff.Timer) (SDK, error) {
	var sdk SDK
	lookup := func() error {
		if locate != nil {
			if s := locate(); s != nil {
				sdk = s
				return nil
			}
		}
		return ErrSDKNotLoaded
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(interval), uint64(maxWaits)),
		ctx,
	)
	if err := backoff.RetryNotifyWithTimer(lookup, b, nil, timer); err != nil {
		return nil, err
	}
	return sdk, nil
}
