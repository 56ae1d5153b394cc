package removal

import (
	"fmt"
	"strings"
)

// Result is the three-valued outcome of one removal attempt.
type Result int

const (
	RemovedViaLifecycle Result = iota
	RemovedRegistryOnly
	Failed
)

func (r Result) String() string {
	switch r {
	case RemovedViaLifecycle:
		return "removed-via-lifecycle"
	case RemovedRegistryOnly:
		return "removed-registry-only"
	default:
		return "failed"
	}
}

// Outcome records what happened to one selected extension.
type Outcome struct {
	ID      int64
	Name    string // display name, "#<id>" when the record could not be read
	Result  Result
	Message string
}

// Tally counts outcomes per result.
type Tally struct {
	Success int
	Partial int
	Error   int
}

// Summarize folds outcomes into a Tally.
func Summarize(outcomes []Outcome) Tally {
	var t Tally
	for _, o := range outcomes {
		switch o.Result {
		case RemovedViaLifecycle:
			t.Success++
		case RemovedRegistryOnly:
			t.Partial++
		default:
			t.Error++
		}
	}
	return t
}

// NothingSelectedNotice is shown when a submitted selection is empty.
const NothingSelectedNotice = "Nothing selected."

// Level is the severity of a Notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one aggregate message for the operator.
type Notice struct {
	Level Level
	Text  string
}

// Batch is the ordered outcome of one removal request.
type Batch struct {
	NothingSelected bool
	Outcomes        []Outcome
}

// Tally returns the batch's aggregate counts.
func (b Batch) Tally() Tally {
	return Summarize(b.Outcomes)
}

// Notices returns at most three aggregate notices: success count, partial
// count with its items, error count with its items. Empty groups are omitted.
func (b Batch) Notices() []Notice {
	if b.NothingSelected {
		return []Notice{{Level: LevelInfo, Text: NothingSelectedNotice}}
	}

	t := b.Tally()
	var notices []Notice
	if t.Success > 0 {
		notices = append(notices, Notice{
			Level: LevelSuccess,
			Text:  fmt.Sprintf("%s removed.", countNoun(t.Success)),
		})
	}
	if t.Partial > 0 {
		notices = append(notices, Notice{
			Level: LevelWarning,
			Text: fmt.Sprintf("%s removed from the registry only, files may remain on disk: %s",
				countNoun(t.Partial), b.messages(RemovedRegistryOnly)),
		})
	}
	if t.Error > 0 {
		notices = append(notices, Notice{
			Level: LevelError,
			Text:  fmt.Sprintf("%s could not be removed: %s", countNoun(t.Error), b.messages(Failed)),
		})
	}
	return notices
}

func (b Batch) messages(r Result) string {
	var parts []string
	for _, o := range b.Outcomes {
		if o.Result == r {
			parts = append(parts, o.Message)
		}
	}
	return strings.Join(parts, "; ")
}

func countNoun(n int) string {
	if n == 1 {
		return "1 extension"
	}
	return fmt.Sprintf("%d extensions", n)
}
