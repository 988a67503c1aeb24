package main

import (
	"context"
	"flag"
	"io"
	"testing"

	"github.com/phrazzld/todo-api/internal/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    options
		wantErr bool
	}{
		{name: "defaults", args: nil, want: options{}},
		{name: "config path", args: []string{"-config", "/etc/todo.yaml"}, want: options{configPath: "/etc/todo.yaml"}},
		{name: "migrate up", args: []string{"-migrate", "up"}, want: options{migrate: "up"}},
		{name: "run job", args: []string{"-run-job", job.DailyRollover}, want: options{runJob: job.DailyRollover}},
		{name: "unknown migration", args: []string{"-migrate", "sideways"}, wantErr: true},
		{name: "unknown job", args: []string{"-run-job", "cleanup"}, wantErr: true},
		{name: "migrate and job", args: []string{"-migrate", "up", "-run-job", job.OverdueSweep}, wantErr: true},
		{name: "unknown flag", args: []string{"-port", "80"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, opts)
		})
	}
}

func TestParseFlags_Help(t *testing.T) {
	_, err := parseFlags([]string{"-h"}, io.Discard)
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestRunMigrations_RequiresPostgres(t *testing.T) {
	err := runMigrations(context.Background(), testConfig(), "up", testLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
