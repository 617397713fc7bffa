// Package preflight provides readiness checks for the filesystem paths and
// listeners the framebridge daemon depends on.
//
// These checks run in two contexts:
//   - The daemon runner calls RunAll before binding anything. A failed check
//     is logged with a hint but does not abort startup on its own.
//   - The CLI "framebridge status" command uses individual check functions
//     (CheckDirectoryAccess, CheckEndpoint) to display service health.
package preflight
