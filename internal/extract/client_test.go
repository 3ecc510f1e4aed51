package extract

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/in-nis/classplan/internal/timetable"
)

func TestExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "kw10.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4", string(content))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"monday":{"1":[{"subject":"Mathe","teacher":"MUE","room":"R1","specialization":2}]}}`)
	}))
	defer srv.Close()

	tree, err := NewClient(srv.URL, time.Second).Extract(context.Background(), "kw10.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)

	lessons := tree["monday"]["1"]
	require.Len(t, lessons, 1)
	assert.Equal(t, "Mathe", lessons[0].Subject)
	assert.Equal(t, timetable.FlexList[int]{2}, lessons[0].Specialization)
}

func TestExtractFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "cannot read pdf", http.StatusUnprocessableEntity)
		}},
		{"bad json", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = io.WriteString(w, `{"monday":`)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second).Extract(context.Background(), "x.pdf", strings.NewReader("x"))
			assert.True(t, errors.Is(err, ErrFailed), "got %v", err)
		})
	}
}

func TestExtractDisabled(t *testing.T) {
	c := NewClient("", time.Second)
	assert.False(t, c.Enabled())

	_, err := c.Extract(context.Background(), "x.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrDisabled)
}
