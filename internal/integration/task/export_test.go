package task

import "context"

// ContributedTasksForTest exposes contributedTasks to external test packages.
func (ix *Index) ContributedTasksForTest(ctx context.Context, folder string) ([]*Task, error) {
	return ix.contributedTasks(ctx, folder)
}
