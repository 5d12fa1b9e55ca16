package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/config"
	"github.com/jonathan/resume-matcher/internal/history"
	"github.com/jonathan/resume-matcher/internal/scoring"
	"github.com/jonathan/resume-matcher/internal/server"
)

const (
	testResume = "Experienced Golang developer. Built services on Kubernetes backed by Postgres.\n" +
		"Experience\nLed the platform team.\nEducation\nBSc Computer Science\nSkills\nGolang Kubernetes Postgres"
	testJob       = "We need a Golang engineer with Kubernetes, Postgres and Terraform experience."
	testJWTSecret = "cli-test-secret-0123456789"
)

type fakeOptimizer struct {
	calls []string
}

func (f *fakeOptimizer) Suggest(_ context.Context, _, _, token string) (string, error) {
	f.calls = append(f.calls, "suggest:"+token)
	return "Mention Terraform in your skills section.", nil
}

func (f *fakeOptimizer) CoverLetter(_ context.Context, _, _, token string) (string, error) {
	f.calls = append(f.calls, "cover:"+token)
	return "Dear hiring manager, I build Golang services.", nil
}

type fakeFetcher struct {
	text string
}

func (f fakeFetcher) FetchText(_ context.Context, _ string) (string, error) {
	return f.text, nil
}

// setupEnv points the file store at a temp dir and clears variables the
// developer's shell may set.
func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv(config.EnvStore, "file")
	t.Setenv(config.EnvStorePath, filepath.Join(dir, "state.json"))
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvLogLevel, "error")
	t.Setenv(config.EnvHistoryCapacity, "")
	t.Setenv(config.EnvJWTSecret, testJWTSecret)
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func execute(t *testing.T, a *app, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return a.out.(*bytes.Buffer).String(), err
}

func newTestApp() *app {
	return newApp(&bytes.Buffer{}, &bytes.Buffer{})
}

func TestAnalyzeCommand_PrintsResult(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)
	job := writeFile(t, dir, "job.txt", testJob)

	out, err := execute(t, newTestApp(), "analyze", "--resume", resume, "--job", job)
	require.NoError(t, err)

	assert.Contains(t, out, "ANALYSIS RESULT")
	assert.Contains(t, out, "ATS score:")
	assert.Contains(t, out, "terraform")
}

func TestAnalyzeCommand_JSON(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)

	out, err := execute(t, newTestApp(), "analyze", "--resume", resume, "--job-text", testJob, "--json")
	require.NoError(t, err)

	var result scoring.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Contains(t, result.MatchedKeywords, "kubernetes")
	assert.Contains(t, result.MissingKeywords, "terraform")
	assert.GreaterOrEqual(t, result.Score, 0)
	assert.LessOrEqual(t, result.Score, 100)
}

func TestAnalyzeCommand_JobURL(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)

	a := newTestApp()
	a.fetcher = fakeFetcher{text: testJob}
	out, err := execute(t, a, "analyze", "--resume", resume, "--job-url", "https://jobs.example.com/42", "--json")
	require.NoError(t, err)

	var result scoring.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Contains(t, result.MissingKeywords, "terraform")
}

func TestAnalyzeCommand_ReusesSavedDocuments(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)
	job := writeFile(t, dir, "job.txt", testJob)

	_, err := execute(t, newTestApp(), "analyze", "--resume", resume, "--job", job)
	require.NoError(t, err)

	// A second run without flags scores the documents saved by the first.
	_, err = execute(t, newTestApp(), "analyze")
	require.NoError(t, err)

	out, err := execute(t, newTestApp(), "history", "--json")
	require.NoError(t, err)

	var entries []history.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Greater(t, entries[0].ID, entries[1].ID)
	assert.Equal(t, "resume.txt", entries[0].ResumeFileName)
	assert.Equal(t, "job.txt", entries[0].JDFileName)
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)
	job := writeFile(t, dir, "job.txt", testJob)
	blank := writeFile(t, dir, "blank.txt", "a an the")

	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{
			name:        "nothing loaded",
			args:        []string{"analyze"},
			errorString: "Load a resume",
		},
		{
			name:        "two job sources",
			args:        []string{"analyze", "--resume", resume, "--job", job, "--job-text", testJob},
			errorString: "mutually exclusive",
		},
		{
			name:        "missing resume file",
			args:        []string{"analyze", "--resume", filepath.Join(dir, "nope.pdf"), "--job", job},
			errorString: "failed to open",
		},
		{
			name:        "job without keywords",
			args:        []string{"analyze", "--resume", resume, "--job", blank},
			errorString: "no usable keywords",
		},
		{
			name:        "unexpected argument",
			args:        []string{"analyze", "extra"},
			errorString: "unknown command",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, newTestApp(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestCommands_RecoverFromCorruptStore(t *testing.T) {
	dir := setupEnv(t)
	statePath := filepath.Join(dir, "state.json")
	writeFile(t, dir, "state.json", `{"resume_matcher.history": "[{`)
	resume := writeFile(t, dir, "resume.txt", testResume)

	a := newTestApp()
	out, err := execute(t, a, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No analyses yet")
	assert.Contains(t, a.errOut.(*bytes.Buffer).String(), "saved data was unreadable")

	moved, err := filepath.Glob(statePath + ".corrupt-*")
	require.NoError(t, err)
	assert.Len(t, moved, 1)

	_, err = execute(t, newTestApp(), "analyze", "--resume", resume, "--job-text", testJob)
	require.NoError(t, err)

	a = newTestApp()
	out, err = execute(t, a, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "HISTORY (1)")
	assert.NotContains(t, a.errOut.(*bytes.Buffer).String(), "saved data was unreadable")
}

func TestHistoryCommand(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)

	out, err := execute(t, newTestApp(), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No analyses yet")

	_, err = execute(t, newTestApp(), "analyze", "--resume", resume, "--job-text", testJob)
	require.NoError(t, err)

	out, err = execute(t, newTestApp(), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "HISTORY (1)")
	assert.Contains(t, out, "resume.txt vs pasted job description")

	out, err = execute(t, newTestApp(), "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "History cleared")

	out, err = execute(t, newTestApp(), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No analyses yet")
}

func TestResetCommand_KeepsHistory(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)

	_, err := execute(t, newTestApp(), "analyze", "--resume", resume, "--job-text", testJob)
	require.NoError(t, err)

	out, err := execute(t, newTestApp(), "reset")
	require.NoError(t, err)
	assert.Contains(t, out, "Session reset")

	_, err = execute(t, newTestApp(), "analyze")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Load a resume")

	out, err = execute(t, newTestApp(), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "HISTORY (1)")
}

func TestBatchCommand_RanksResumes(t *testing.T) {
	dir := setupEnv(t)
	job := writeFile(t, dir, "job.txt", testJob)
	strong := writeFile(t, dir, "strong.txt", testResume+"\nTerraform modules for every environment.")
	weak := writeFile(t, dir, "weak.txt", "Pastry chef with a passion for sourdough baking.")
	missing := filepath.Join(dir, "missing.txt")

	out, err := execute(t, newTestApp(), "batch", "--job", job, "--concurrency", "2", "--json", weak, missing, strong)
	require.NoError(t, err)

	var rows []batchRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 3)
	assert.Equal(t, "strong.txt", rows[0].File)
	assert.Equal(t, "weak.txt", rows[1].File)
	assert.Greater(t, rows[0].Score, rows[1].Score)
	assert.Equal(t, "missing.txt", rows[2].File)
	assert.Contains(t, rows[2].Error, "failed to open")

	// Batch runs leave history alone.
	out, err = execute(t, newTestApp(), "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No analyses yet")
}

func TestBatchCommand_Table(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)

	out, err := execute(t, newTestApp(), "batch", "--job-text", testJob, resume)
	require.NoError(t, err)
	assert.Contains(t, out, "RANK")
	assert.Contains(t, out, "resume.txt")
}

func TestBatchCommand_Errors(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)
	job := writeFile(t, dir, "job.txt", testJob)

	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{"no job", []string{"batch", resume}, "either --job or --job-text"},
		{"both jobs", []string{"batch", "--job", job, "--job-text", testJob, resume}, "mutually exclusive"},
		{"zero concurrency", []string{"batch", "--job", job, "--concurrency", "0", resume}, "at least 1"},
		{"no resumes", []string{"batch", "--job", job}, "requires at least 1 arg"},
		{"unreadable job", []string{"batch", "--job", filepath.Join(dir, "nope.txt"), resume}, "failed to read job description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, newTestApp(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestOptimizeCommand(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)

	_, err := execute(t, newTestApp(), "analyze", "--resume", resume, "--job-text", testJob)
	require.NoError(t, err)

	opt := &fakeOptimizer{}
	a := newTestApp()
	a.optimizer = opt
	out, err := execute(t, a, "optimize", "--api-key", "user-key")
	require.NoError(t, err)
	assert.Contains(t, out, "RESUME SUGGESTIONS")
	assert.Contains(t, out, "Mention Terraform")

	a = newTestApp()
	a.optimizer = opt
	out, err = execute(t, a, "optimize", "--cover-letter")
	require.NoError(t, err)
	assert.Contains(t, out, "COVER LETTER")

	assert.Equal(t, []string{"suggest:user-key", "cover:"}, opt.calls)
}

func TestOptimizeCommand_Errors(t *testing.T) {
	dir := setupEnv(t)
	resume := writeFile(t, dir, "resume.txt", testResume)

	_, err := execute(t, newTestApp(), "optimize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Load a resume")

	_, err = execute(t, newTestApp(), "analyze", "--resume", resume, "--job-text", testJob)
	require.NoError(t, err)

	// No GEMINI_API_KEY and no --api-key.
	_, err = execute(t, newTestApp(), "optimize")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestTokenCommand(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, newTestApp(), "token", "--subject", "alice")
	require.NoError(t, err)

	jwtCfg, err := config.NewJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(jwtCfg).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)

	out, err = execute(t, newTestApp(), "token")
	require.NoError(t, err)
	claims, err = server.NewJWTService(jwtCfg).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.NotEmpty(t, claims.Subject)
}

func TestCommands_RequireJWTSecret(t *testing.T) {
	setupEnv(t)
	t.Setenv(config.EnvJWTSecret, "")

	for _, args := range [][]string{{"token"}, {"serve", "--port", "0"}} {
		t.Run(args[0], func(t *testing.T) {
			_, err := execute(t, newTestApp(), args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), config.EnvJWTSecret)
		})
	}
}

func TestRootCommand_ConfigErrors(t *testing.T) {
	dir := setupEnv(t)

	t.Run("bad file", func(t *testing.T) {
		path := writeFile(t, dir, "config.json", "{not json")
		_, err := execute(t, newTestApp(), "--config", path, "history")
		require.Error(t, err)
	})

	t.Run("bad env", func(t *testing.T) {
		t.Setenv(config.EnvHistoryCapacity, "lots")
		_, err := execute(t, newTestApp(), "history")
		require.Error(t, err)
		assert.Contains(t, err.Error(), config.EnvHistoryCapacity)
	})
}
