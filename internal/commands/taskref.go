package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"unicode"

	"taskdesk/internal/service"
	"taskdesk/internal/tasklist"
)

// TaskRef is a 1-based row number as shown by list.
type TaskRef struct {
	Num int
}

// Page returns the page the row is on.
func (r TaskRef) Page() int {
	return (r.Num-1)/tasklist.PageSize + 1
}

// Index returns the row's position within its page.
func (r TaskRef) Index() int {
	return (r.Num - 1) % tasklist.PageSize
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ErrTaskOutOfRange indicates the row number doesn't exist.
var ErrTaskOutOfRange = errors.New("task number out of range")

// ParseTaskRef parses the task reference from args.
// The first arg must be a positive row number; extra args are an error.
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	ref := args[0]
	if !isAllDigits(ref) {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", ref)
	}
	num, err := strconv.Atoi(ref)
	if err != nil {
		return TaskRef{}, fmt.Errorf("invalid task reference: %s", ref)
	}
	if num < 1 {
		return TaskRef{}, fmt.Errorf("%w: %d", ErrTaskOutOfRange, num)
	}
	return TaskRef{Num: num}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// lookupTask loads the page holding ref and returns its task. The first page
// is fetched to learn the page count so that navigation stays in range.
func lookupTask(ctx context.Context, c *tasklist.Controller, ref TaskRef) (service.Task, error) {
	if err := c.FetchPage(ctx, 1); err != nil {
		return service.Task{}, err
	}
	if ref.Page() > 1 {
		if err := c.GoToPage(ctx, ref.Page()); err != nil {
			if errors.Is(err, tasklist.ErrPageOutOfRange) {
				return service.Task{}, fmt.Errorf("%w: %d", ErrTaskOutOfRange, ref.Num)
			}
			return service.Task{}, err
		}
	}

	items := c.View().Items
	if ref.Index() >= len(items) {
		return service.Task{}, fmt.Errorf("%w: %d", ErrTaskOutOfRange, ref.Num)
	}
	return items[ref.Index()], nil
}
