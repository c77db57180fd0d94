// Package gitrepo lists the branches of project repositories.
//
// Two listers are available: CommandLineBranchLister shells out to git through
// execshell, and InProcessBranchLister reads references with go-git. Both return
// branch lines in the shape printed by `git branch -a`.
package gitrepo
