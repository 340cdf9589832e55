package testhelpers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	ngerrors "ngdev.dev/ngdev/internal/errors"
	"ngdev.dev/ngdev/internal/git"
	"ngdev.dev/ngdev/internal/npm"
)

// FakeGit is an in-memory git.Client that records every call in order.
type FakeGit struct {
	Root  string
	Dirty bool
	Ref   string
	// Revs maps revisions to SHAs for RevParse
	Revs map[string]string
	// Ranges maps "from..to" to the commits in that range
	Ranges map[string][]git.RawCommit
	// FailPushTo makes pushes to these branches fail
	FailPushTo map[string]bool
	// FailFetch makes every fetch fail
	FailFetch bool
	// FailCheckout makes checking out these refs fail
	FailCheckout map[string]bool
	// FailCommit makes every commit fail
	FailCommit bool
	// Conflicting makes TryMerge report a conflict for these refs
	Conflicting map[string]bool
	// Files are the tracked files; Changed maps a base to the files changed since it
	Files   []string
	Changed map[string][]string
	Staged  []string

	Calls   []string
	Pushed  []string
	Commits []string
	Tags    []string
}

var _ git.Client = (*FakeGit)(nil)

// NewFakeGit creates a clean fake repository checked out on main
func NewFakeGit() *FakeGit {
	return &FakeGit{
		Root:         "/repo",
		Ref:          "main",
		Revs:         make(map[string]string),
		Ranges:       make(map[string][]git.RawCommit),
		FailPushTo:   make(map[string]bool),
		FailCheckout: make(map[string]bool),
		Conflicting:  make(map[string]bool),
		Changed:      make(map[string][]string),
	}
}

func (f *FakeGit) record(format string, args ...any) {
	f.Calls = append(f.Calls, fmt.Sprintf(format, args...))
}

// Called reports whether a call starting with prefix was recorded
func (f *FakeGit) Called(prefix string) bool {
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}

func (f *FakeGit) RepoRoot() string { return f.Root }

func (f *FakeGit) HasUncommittedChanges(context.Context) (bool, error) {
	f.record("status")
	return f.Dirty, nil
}

func (f *FakeGit) CurrentRef(context.Context) (string, error) {
	f.record("current-ref")
	return f.Ref, nil
}

func (f *FakeGit) RevParse(_ context.Context, rev string) (string, error) {
	f.record("rev-parse %s", rev)
	if sha, ok := f.Revs[rev]; ok {
		return sha, nil
	}
	return "sha-" + rev, nil
}

func (f *FakeGit) Checkout(_ context.Context, ref string) error {
	f.record("checkout %s", ref)
	if f.FailCheckout[ref] {
		return ngerrors.NewCommandError("git", []string{"checkout", ref}, "", "error: pathspec '"+ref+"' did not match", 1, errors.New("exit status 1"))
	}
	f.Ref = ref
	return nil
}

func (f *FakeGit) CheckoutNewBranch(_ context.Context, name, startPoint string) error {
	f.record("checkout -B %s %s", name, startPoint)
	f.Ref = name
	return nil
}

func (f *FakeGit) DeleteBranch(_ context.Context, name string) error {
	f.record("branch -D %s", name)
	return nil
}

func (f *FakeGit) ResetHard(_ context.Context, ref string) error {
	f.record("reset --hard %s", ref)
	return nil
}

func (f *FakeGit) Fetch(_ context.Context, remote string, refspecs ...string) error {
	f.record("fetch %s", strings.Join(refspecs, " "))
	if f.FailFetch {
		return ngerrors.NewCommandError("git", append([]string{"fetch", remote}, refspecs...), "", "fatal: couldn't find remote ref", 128, errors.New("exit status 128"))
	}
	return nil
}

func (f *FakeGit) Push(_ context.Context, remote string, force bool, refspecs ...string) error {
	f.record("push %s", strings.Join(refspecs, " "))
	for _, spec := range refspecs {
		target := spec[strings.LastIndex(spec, ":")+1:]
		target = strings.TrimPrefix(target, "refs/heads/")
		if f.FailPushTo[target] {
			return ngerrors.NewCommandError("git", append([]string{"push", remote}, refspecs...), "", "! [rejected] "+target, 1, errors.New("exit status 1"))
		}
		f.Pushed = append(f.Pushed, target)
	}
	return nil
}

func (f *FakeGit) CommitsInRange(_ context.Context, from, to string) ([]git.RawCommit, error) {
	f.record("log %s..%s", from, to)
	return f.Ranges[from+".."+to], nil
}

func (f *FakeGit) RebaseAutosquash(_ context.Context, onto string) error {
	f.record("rebase %s", onto)
	return nil
}

func (f *FakeGit) CherryPick(_ context.Context, sha string) error {
	f.record("cherry-pick %s", sha)
	return nil
}

func (f *FakeGit) SquashMerge(_ context.Context, ref string) error {
	f.record("merge --squash %s", ref)
	return nil
}

func (f *FakeGit) TryMerge(_ context.Context, ref string) (bool, error) {
	f.record("merge --no-commit %s", ref)
	return !f.Conflicting[ref], nil
}

func (f *FakeGit) Commit(_ context.Context, message string, paths ...string) error {
	f.record("commit")
	if f.FailCommit {
		return ngerrors.NewCommandError("git", []string{"commit"}, "", "error: unable to write commit", 1, errors.New("exit status 1"))
	}
	f.Commits = append(f.Commits, message)
	return nil
}

func (f *FakeGit) AmendMessage(_ context.Context, message string) error {
	f.record("commit --amend")
	f.Commits = append(f.Commits, message)
	return nil
}

func (f *FakeGit) Add(_ context.Context, paths ...string) error {
	f.record("add %s", strings.Join(paths, " "))
	return nil
}

func (f *FakeGit) CreateTag(_ context.Context, name, sha, message string) error {
	f.record("tag %s %s", name, sha)
	f.Tags = append(f.Tags, name)
	return nil
}

func (f *FakeGit) ListFiles(context.Context) ([]string, error) {
	f.record("ls-files")
	return f.Files, nil
}

func (f *FakeGit) ChangedFiles(_ context.Context, base string) ([]string, error) {
	f.record("diff %s", base)
	return f.Changed[base], nil
}

func (f *FakeGit) StagedFiles(context.Context) ([]string, error) {
	f.record("diff --cached")
	return f.Staged, nil
}

// FakeNpm is an in-memory npm.Client
type FakeNpm struct {
	LoggedIn bool
	Infos    map[string]*npm.PackageInfo
	// Published records "dir@tag" for every publish
	Published []string
	// DistTags records "pkg@version:tag" for every dist-tag change; removals use an empty version
	DistTags []string
	// InfoLookups counts registry reads
	InfoLookups int
}

var _ npm.Client = (*FakeNpm)(nil)

// NewFakeNpm creates a logged-in fake with no packages
func NewFakeNpm() *FakeNpm {
	return &FakeNpm{LoggedIn: true, Infos: make(map[string]*npm.PackageInfo)}
}

// AddPackage registers a package whose latest dist-tag points at latest
func (f *FakeNpm) AddPackage(name, latest string) *npm.PackageInfo {
	info := &npm.PackageInfo{
		Name:     name,
		DistTags: map[string]string{"latest": latest},
		Time:     map[string]string{},
	}
	f.Infos[name] = info
	return info
}

func (f *FakeNpm) Publish(_ context.Context, dir, distTag string) error {
	f.Published = append(f.Published, dir+"@"+distTag)
	return nil
}

func (f *FakeNpm) SetDistTag(_ context.Context, pkg, version, tag string) error {
	f.DistTags = append(f.DistTags, pkg+"@"+version+":"+tag)
	return nil
}

func (f *FakeNpm) DeleteDistTag(_ context.Context, pkg, tag string) error {
	f.DistTags = append(f.DistTags, pkg+"@:"+tag)
	return nil
}

func (f *FakeNpm) CheckIsLoggedIn(context.Context) (bool, error) {
	return f.LoggedIn, nil
}

func (f *FakeNpm) PackageInfo(_ context.Context, name string) (*npm.PackageInfo, error) {
	f.InfoLookups++
	info, ok := f.Infos[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", npm.ErrPackageNotFound, name)
	}
	return info, nil
}

func (f *FakeNpm) LatestVersion(ctx context.Context, name string) (string, error) {
	info, err := f.PackageInfo(ctx, name)
	if err != nil {
		return "", err
	}
	return info.DistTags["latest"], nil
}

// FakePrompter answers prompts from queued responses
type FakePrompter struct {
	Confirms   []bool
	Selections []string
	Inputs     []string
	// Asked records every prompt message
	Asked []string
}

// ErrUnexpectedPrompt is returned when a prompt has no queued answer
var ErrUnexpectedPrompt = errors.New("unexpected prompt")

func (p *FakePrompter) Confirm(message string, _ bool) (bool, error) {
	p.Asked = append(p.Asked, message)
	if len(p.Confirms) == 0 {
		return false, fmt.Errorf("%w: %s", ErrUnexpectedPrompt, message)
	}
	answer := p.Confirms[0]
	p.Confirms = p.Confirms[1:]
	return answer, nil
}

func (p *FakePrompter) Select(message string, options []string) (string, error) {
	p.Asked = append(p.Asked, message)
	if len(p.Selections) == 0 {
		return "", fmt.Errorf("%w: %s", ErrUnexpectedPrompt, message)
	}
	answer := p.Selections[0]
	p.Selections = p.Selections[1:]
	for _, o := range options {
		if o == answer {
			return answer, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %v", answer, options)
}

func (p *FakePrompter) Input(message, defaultValue string) (string, error) {
	p.Asked = append(p.Asked, message)
	if len(p.Inputs) == 0 {
		return defaultValue, nil
	}
	answer := p.Inputs[0]
	p.Inputs = p.Inputs[1:]
	return answer, nil
}
