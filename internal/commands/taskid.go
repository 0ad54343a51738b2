package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"flowtrack/internal/service"
)

// ErrTaskIDRequired indicates no task id was provided.
var ErrTaskIDRequired = errors.New("task id required")

// ParseTaskID parses a single positive task id from args.
// Extra arguments are an error.
func ParseTaskID(args []string) (int, error) {
	if len(args) == 0 {
		return 0, ErrTaskIDRequired
	}
	if len(args) > 1 {
		return 0, fmt.Errorf("unexpected argument: %s", args[1])
	}
	return parseID(args[0])
}

// ParseTaskIDs parses one or more task ids. Duplicates are dropped,
// order is kept.
func ParseTaskIDs(args []string) ([]int, error) {
	if len(args) == 0 {
		return nil, ErrTaskIDRequired
	}

	seen := make(map[int]bool, len(args))
	ids := make([]int, 0, len(args))
	for _, arg := range args {
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

func parseID(s string) (int, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	id, err := strconv.Atoi(s)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid task id: %s", s)
	}
	return id, nil
}

// findTask fetches a task, turning an absent result into an error.
func findTask(ctx context.Context, svc service.Service, id int) (service.Task, error) {
	task, ok := svc.GetByID(ctx, id)
	if !ok {
		return service.Task{}, fmt.Errorf("task not found: %d", id)
	}
	return task, nil
}
