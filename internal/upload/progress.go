package upload

import (
	"context"
	"time"
)

// Step is one stage of the upload progress indicator.
type Step struct {
	Percent int
	Status  string
}

var (
	startStep = Step{10, "Uploading document..."}
	doneStep  = Step{100, "Analysis complete!"}
	// The backend gives no progress while it analyses a document; these
	// advance on a timer and stop at 90 until the response arrives.
	timedSteps = []Step{
		{20, "Extracting text from document..."},
		{40, "AI is analyzing the policy..."},
		{60, "Extracting clauses..."},
		{80, "Saving to database..."},
		{90, "Almost done..."},
	}
)

const DefaultStepInterval = 1500 * time.Millisecond

// trackProgress reports startStep, runs fn while advancing through
// timedSteps, then reports doneStep on success or a reset to 0 on failure.
// The failure status is the same user-facing text the notifier shows.
func trackProgress(ctx context.Context, interval time.Duration, report func(Step), fn func() error) error {
	if report == nil {
		report = func(Step) {}
	}
	report(startStep)

	stop := make(chan struct{})
	ticking := make(chan struct{})
	go func() {
		defer close(ticking)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for _, step := range timedSteps {
			select {
			case <-ticker.C:
				report(step)
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	err := fn()
	close(stop)
	<-ticking

	if err != nil {
		report(Step{0, failureDetail(err)})
		return err
	}
	report(doneStep)
	return nil
}
