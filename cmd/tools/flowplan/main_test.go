package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	pb "github.com/substrait-io/substrait-protobuf/go/substraitpb"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/milvus-io/milvus-flow/pkg/util/merr"
)

const numbersTables = `[{"name":"numbers","id":0,"columns":[{"type":"uint32","nullable":false}]}]`

func fixture(t *testing.T, name string) []byte {
	data, err := os.ReadFile("../../../internal/flow/transform/testdata/" + name)
	require.NoError(t, err)
	return data
}

func TestHandlePlanJSON(t *testing.T) {
	line := `{"id":"1","op":"translate_plan","plan_json":` + string(fixture(t, "implicit_cast.json")) + `,"tables":` + numbersTables + `}`
	resp := handle(context.Background(), string(bytes.ReplaceAll([]byte(line), []byte("\n"), nil)))
	require.True(t, resp.OK, resp.Error)
	assert.Equal(t, "1", resp.ID)
	assert.Equal(t, "(uint32?)", resp.Type)
	assert.Contains(t, resp.Plan, "map add_uint32(#0, 1::uint32)")
}

func TestHandlePlanB64(t *testing.T) {
	p := &pb.Plan{}
	require.NoError(t, protojson.Unmarshal(fixture(t, "constant_folding.json"), p))
	bs, err := proto.Marshal(p)
	require.NoError(t, err)

	req, err := json.Marshal(map[string]any{
		"id":       "2",
		"op":       "translate_plan",
		"plan_b64": base64.StdEncoding.EncodeToString(bs),
		"tables":   json.RawMessage(numbersTables),
	})
	require.NoError(t, err)
	resp := handle(context.Background(), string(req))
	require.True(t, resp.OK, resp.Error)
	assert.Contains(t, resp.Plan, "Constant")
	assert.Contains(t, resp.Plan, "(true)")
}

func TestHandleErrors(t *testing.T) {
	ctx := context.Background()

	resp := handle(ctx, "  ")
	assert.False(t, resp.OK)
	assert.Equal(t, "empty line", resp.Error)

	resp = handle(ctx, `{"id":"3","op":"parse_expr"}`)
	assert.False(t, resp.OK)
	assert.Equal(t, "unsupported op", resp.Error)

	resp = handle(ctx, `{"id":"4","op":"translate_plan"}`)
	assert.False(t, resp.OK)
	assert.Equal(t, merr.Code(merr.ErrParameterInvalid), resp.Code)

	resp = handle(ctx, `{"id":"5","op":"translate_plan","plan_json":{},"tables":[{"name":"t","columns":[{"type":"point"}]}]}`)
	assert.False(t, resp.OK)
	assert.Equal(t, merr.Code(merr.ErrParameterInvalid), resp.Code)

	resp = handle(ctx, `{"id":"6","op":"translate_plan","plan_json":{},"tables":[]}`)
	assert.False(t, resp.OK)
	assert.Equal(t, merr.Code(merr.ErrInvalidPlan), resp.Code)

	resp = handle(ctx, `{"id":"7","op":"translate_plan","plan_b64":"!!"}`)
	assert.False(t, resp.OK)
	assert.Contains(t, resp.Error, "plan_b64")
}

func TestWriteResp(t *testing.T) {
	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	writeResp(w, translateResponse{ID: "x", OK: true, Plan: "p"})
	assert.Equal(t, `{"id":"x","ok":true,"plan":"p"}`+"\n", out.String())
}
