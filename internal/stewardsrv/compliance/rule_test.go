package compliance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileRule(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr bool
	}{
		{
			name: "plain function",
			code: `function(product) { return product.owner !== undefined; }`,
		},
		{
			name: "arrow function",
			code: `(product) => product.tags && product.tags.includes("pii")`,
		},
		{
			name:    "empty rule",
			code:    "   ",
			wantErr: true,
		},
		{
			name:    "not a function",
			code:    "42",
			wantErr: true,
		},
		{
			name:    "syntax error",
			code:    `function(product) { return product.owner ===`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := CompileRule(tt.code)
			if tt.wantErr {
				assert.Nil(t, rule)
				require.Error(t, err)
				assert.True(t, err.Is(ErrInvalidRule))
				return
			}
			require.Nil(t, err)
			require.NotNil(t, rule)
		})
	}
}

func TestRuleEval(t *testing.T) {
	ctx := context.Background()
	doc := map[string]any{
		"id":     "customer-360",
		"owner":  "data-platform",
		"status": "active",
		"tags":   []any{"pii", "gold"},
		"outputPorts": []any{
			map[string]any{"name": "kpis", "description": "monthly kpis"},
		},
	}

	t.Run("passing rule", func(t *testing.T) {
		rule, err := CompileRule(`function(p) { return p.owner === "data-platform"; }`)
		require.Nil(t, err)
		passed, msg := rule.Eval(ctx, doc, time.Second)
		assert.True(t, passed)
		assert.Empty(t, msg)
	})

	t.Run("nested document access", func(t *testing.T) {
		rule, err := CompileRule(`function(p) {
			return p.outputPorts.every(function(port) { return port.description !== ""; });
		}`)
		require.Nil(t, err)
		passed, msg := rule.Eval(ctx, doc, time.Second)
		assert.True(t, passed, msg)
	})

	t.Run("failing rule", func(t *testing.T) {
		rule, err := CompileRule(`function(p) { return p.status === "retired"; }`)
		require.Nil(t, err)
		passed, msg := rule.Eval(ctx, doc, time.Second)
		assert.False(t, passed)
		assert.Equal(t, "rule returned false", msg)
	})

	t.Run("thrown exception", func(t *testing.T) {
		rule, err := CompileRule(`function(p) { throw new Error("missing owner"); }`)
		require.Nil(t, err)
		passed, msg := rule.Eval(ctx, doc, time.Second)
		assert.False(t, passed)
		assert.Contains(t, msg, "rule threw")
		assert.Contains(t, msg, "missing owner")
	})

	t.Run("non boolean return", func(t *testing.T) {
		rule, err := CompileRule(`function(p) { return p.owner; }`)
		require.Nil(t, err)
		passed, msg := rule.Eval(ctx, doc, time.Second)
		assert.False(t, passed)
		assert.Contains(t, msg, "want boolean")
	})

	t.Run("runaway rule times out", func(t *testing.T) {
		rule, err := CompileRule(`function(p) { while (true) {} }`)
		require.Nil(t, err)
		start := time.Now()
		passed, msg := rule.Eval(ctx, doc, 100*time.Millisecond)
		assert.False(t, passed)
		assert.Contains(t, msg, "timed out")
		assert.Less(t, time.Since(start), 5*time.Second)
	})

	t.Run("console log is harmless", func(t *testing.T) {
		rule, err := CompileRule(`function(p) { console.log("checking", p.id); return true; }`)
		require.Nil(t, err)
		passed, msg := rule.Eval(ctx, doc, time.Second)
		assert.True(t, passed, msg)
	})

	t.Run("isolated between evaluations", func(t *testing.T) {
		rule, err := CompileRule(`function(p) {
			if (typeof seen !== "undefined") { return false; }
			seen = true;
			return true;
		}`)
		require.Nil(t, err)
		for i := 0; i < 3; i++ {
			passed, msg := rule.Eval(ctx, doc, time.Second)
			assert.True(t, passed, msg)
		}
	})
}

func TestRuleEvalUndefinedField(t *testing.T) {
	// Accessing absent fields yields undefined, not an abort.
	rule, err := CompileRule(`function(p) { return p.no_such_field === undefined; }`)
	require.Nil(t, err)
	passed, msg := rule.Eval(context.Background(), map[string]any{"id": "x"}, time.Second)
	assert.True(t, passed, msg)
}

func TestRuleEvalTimeoutMessage(t *testing.T) {
	rule, err := CompileRule(`function(p) { for(;;){} }`)
	require.Nil(t, err)
	_, msg := rule.Eval(context.Background(), map[string]any{}, 50*time.Millisecond)
	if !strings.Contains(msg, "50ms") {
		t.Errorf("timeout message %q does not name the limit", msg)
	}
}
