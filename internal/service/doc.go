// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects and the todo
// store (defined in internal/store) to fulfill application features.
//
// Key components:
//
// 1. TodoService:
//   - Create, read, update and delete todos
//   - Lifecycle operations (activate, complete, fail, reactivate)
//   - Notification settings and reminder bookkeeping
//
// 2. Reconciler:
//   - Batch jobs that advance state without user action: the overdue sweep
//     and the daily rollover
//
// 3. Error Handling:
//   - Domain errors pass through untouched so callers can match them with errors.Is
//   - Store not-found errors become ErrTodoNotFound
//   - Everything else is wrapped in a TodoServiceError that matches ErrStorage
//
// Each operation runs its reads and writes in one unit of work (a database
// transaction when the store is backed by one) and emits a lifecycle event
// only after that unit of work commits.
package service
