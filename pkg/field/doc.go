// Package field runs the lifecycle of mounted form fields.
//
// Mount turns a resolved form into a tree of Field values. Error events are
// published on a synchronous Bus under the dotted field key and applied by
// every field bound to that key: the value controller is marked dirty, the
// message is recorded on the descriptor and the code's validity is updated.
// Clearing a code broadcasts a revalidate to the field and its subtree before
// RaiseError returns.
//
// Destroy applies the field's destroy strategy (field, then form-wide, then
// remove) to the bound model; Teardown ends every field without touching the
// model. Destroyed ids stay retired and later events for them are dropped.
package field
