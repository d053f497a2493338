package redis

import (
	"context"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/polydb-io/polydb/pkg/provider"
)

// RunQuery executes one command in redis-cli syntax and normalizes the
// reply into records. The command is privileged, anything the server
// accepts runs.
func (c *Connection) RunQuery(ctx context.Context, query string, qctx provider.QueryContext) ([]provider.Record, error) {
	args, err := tokenizeCommand(query)
	if err != nil {
		return nil, err
	}
	if len(args) == 0 {
		return nil, provider.NewQuerySyntaxError(provider.Redis,
			"command is empty",
			"write a command in redis-cli syntax, e.g. GET session:42")
	}

	ctx, cancel := c.config.OperationContext(ctx)
	defer cancel()

	result, err := c.client.Do(ctx, args...).Result()
	if err == goredis.Nil {
		return normalizeReply(nil, qctx.Limit), nil
	}
	if err != nil {
		return nil, provider.WrapError(provider.Redis, "run_query", err)
	}
	return normalizeReply(result, qctx.Limit), nil
}

// tokenizeCommand splits redis-cli style command text. Single and double
// quotes group words; backslash escapes work inside double quotes only,
// matching redis-cli.
func tokenizeCommand(text string) ([]any, error) {
	var args []any
	var current strings.Builder
	inWord := false

	flush := func() {
		if inWord {
			args = append(args, current.String())
			current.Reset()
			inWord = false
		}
	}

	i := 0
	for i < len(text) {
		ch := text[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			flush()
			i++
		case ch == '\'':
			inWord = true
			i++
			closed := false
			for i < len(text) {
				if text[i] == '\'' {
					closed = true
					i++
					break
				}
				current.WriteByte(text[i])
				i++
			}
			if !closed {
				return nil, provider.NewQuerySyntaxError(provider.Redis,
					"unterminated single-quoted string",
					"close the quote or escape it inside double quotes")
			}
		case ch == '"':
			inWord = true
			i++
			closed := false
			for i < len(text) {
				if text[i] == '"' {
					closed = true
					i++
					break
				}
				if text[i] == '\\' && i+1 < len(text) {
					i++
					switch text[i] {
					case 'n':
						current.WriteByte('\n')
					case 't':
						current.WriteByte('\t')
					case 'r':
						current.WriteByte('\r')
					default:
						current.WriteByte(text[i])
					}
					i++
					continue
				}
				current.WriteByte(text[i])
				i++
			}
			if !closed {
				return nil, provider.NewQuerySyntaxError(provider.Redis,
					"unterminated double-quoted string",
					"close the quote")
			}
		default:
			inWord = true
			current.WriteByte(ch)
			i++
		}
	}
	flush()
	return args, nil
}

// normalizeReply lowers a reply into records the way redis-cli renders
// them: nil becomes "(nil)", an empty array "(empty array)", array items
// get index/value rows, and scalars a single result row.
func normalizeReply(reply any, limit *int64) []provider.Record {
	switch t := reply.(type) {
	case nil:
		rec := provider.NewRecord()
		rec.Set("result", "(nil)")
		return []provider.Record{rec}

	case []any:
		if len(t) == 0 {
			rec := provider.NewRecord()
			rec.Set("result", "(empty array)")
			return []provider.Record{rec}
		}
		records := make([]provider.Record, 0, len(t))
		for i, item := range t {
			if limit != nil && int64(len(records)) >= *limit {
				break
			}
			rec := provider.NewRecord()
			rec.Set("index", int64(i))
			rec.Set("value", replyValue(item))
			records = append(records, rec)
		}
		return records

	case map[any]any:
		records := make([]provider.Record, 0, len(t))
		for k, v := range t {
			if limit != nil && int64(len(records)) >= *limit {
				break
			}
			rec := provider.NewRecord()
			rec.Set("field", fmt.Sprintf("%v", k))
			rec.Set("value", replyValue(v))
			records = append(records, rec)
		}
		return records

	default:
		rec := provider.NewRecord()
		rec.Set("result", replyValue(t))
		return []provider.Record{rec}
	}
}

func replyValue(v any) any {
	switch t := v.(type) {
	case nil:
		return "(nil)"
	case []byte:
		return string(t)
	default:
		return t
	}
}
