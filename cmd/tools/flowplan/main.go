package main

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	pb "github.com/substrait-io/substrait-protobuf/go/substraitpb"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"github.com/milvus-io/milvus-flow/internal/flow/plan"
	"github.com/milvus-io/milvus-flow/internal/flow/repr"
	"github.com/milvus-io/milvus-flow/internal/flow/transform"
	"github.com/milvus-io/milvus-flow/pkg/log"
	"github.com/milvus-io/milvus-flow/pkg/util/merr"
	"github.com/milvus-io/milvus-flow/pkg/util/paramtable"
)

const requestTimeout = 10 * time.Second

type columnSpec struct {
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

type tableSpec struct {
	Name    string       `json:"name"`
	ID      uint64       `json:"id"`
	System  bool         `json:"system"`
	Columns []columnSpec `json:"columns"`
}

type translateRequest struct {
	ID       string          `json:"id"`
	Op       string          `json:"op"`
	PlanB64  string          `json:"plan_b64"`
	PlanJSON json.RawMessage `json:"plan_json"`
	Tables   []tableSpec     `json:"tables"`
}

type translateResponse struct {
	ID    string `json:"id"`
	OK    bool   `json:"ok"`
	Type  string `json:"type,omitempty"`
	Plan  string `json:"plan,omitempty"`
	Error string `json:"error,omitempty"`
	Code  int32  `json:"code,omitempty"`
}

func fail(id string, err error) translateResponse {
	return translateResponse{ID: id, OK: false, Error: err.Error(), Code: merr.Code(err)}
}

func decodePlan(req *translateRequest) (*pb.Plan, error) {
	p := &pb.Plan{}
	switch {
	case req.PlanB64 != "":
		bs, err := base64.StdEncoding.DecodeString(req.PlanB64)
		if err != nil {
			return nil, merr.WrapErrParameterInvalidMsg("decode plan_b64 failed: %v", err)
		}
		if err := proto.Unmarshal(bs, p); err != nil {
			return nil, merr.WrapErrParameterInvalidMsg("unmarshal plan failed: %v", err)
		}
	case len(req.PlanJSON) > 0:
		if err := protojson.Unmarshal(req.PlanJSON, p); err != nil {
			return nil, merr.WrapErrParameterInvalidMsg("unmarshal plan_json failed: %v", err)
		}
	default:
		return nil, merr.WrapErrParameterInvalidMsg("missing plan_b64 or plan_json")
	}
	return p, nil
}

func buildCatalog(tables []tableSpec) (*transform.StaticCatalog, error) {
	catalog := transform.NewStaticCatalog()
	for _, t := range tables {
		if t.Name == "" {
			return nil, merr.WrapErrParameterInvalidMsg("table without name")
		}
		columns := make([]repr.ColumnType, 0, len(t.Columns))
		for _, c := range t.Columns {
			typ, err := repr.TypeFromName(c.Type)
			if err != nil {
				return nil, merr.WrapErrParameterInvalidMsg("table %s: %v", t.Name, err)
			}
			columns = append(columns, repr.NewColumnType(typ, c.Nullable))
		}
		id := repr.NewUserID(t.ID)
		if t.System {
			id = repr.NewSystemID(t.ID)
		}
		catalog.Register(t.Name, id, repr.NewRelationType(columns...))
	}
	return catalog, nil
}

func handle(ctx context.Context, line string) translateResponse {
	line = strings.TrimSpace(line)
	if line == "" {
		return translateResponse{ID: "", OK: false, Error: "empty line"}
	}

	var req translateRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		return translateResponse{ID: req.ID, OK: false, Error: fmt.Sprintf("invalid json: %v", err)}
	}
	if req.Op != "translate_plan" {
		return translateResponse{ID: req.ID, OK: false, Error: "unsupported op"}
	}

	p, err := decodePlan(&req)
	if err != nil {
		return fail(req.ID, err)
	}
	catalog, err := buildCatalog(req.Tables)
	if err != nil {
		return fail(req.ID, err)
	}

	// every request brings its own tables, so plans are not cached across lines
	tctx := transform.NewContext(catalog, transform.WithoutPlanCache())
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	tp, err := transform.FromSubstraitPlan(ctx, tctx, p)
	if err != nil {
		return fail(req.ID, err)
	}
	return translateResponse{ID: req.ID, OK: true, Type: tp.Typ.String(), Plan: plan.PrintAsTree(tp)}
}

func writeResp(w *bufio.Writer, resp translateResponse) {
	b, _ := json.Marshal(resp)
	_, _ = w.Write(b)
	_ = w.WriteByte('\n')
	_ = w.Flush()
}

// initLog sends logs to stderr unless a log file is configured, stdout
// carries responses.
func initLog() {
	cfg := paramtable.Get().LogCfg.LogConfig()
	var (
		logger *zap.Logger
		props  *log.ZapProperties
		err    error
	)
	if cfg.File.Filename != "" {
		logger, props, err = log.InitLogger(cfg)
	} else {
		logger, props, err = log.InitLoggerWithWriteSyncer(cfg, zapcore.Lock(os.Stderr))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger failed: %v\n", err)
		return
	}
	log.ReplaceGlobals(logger, props)
}

func main() {
	paramtable.Init()
	initLog()
	defer func() {
		_ = log.Sync()
	}()

	in := bufio.NewScanner(os.Stdin)
	buf := make([]byte, 0, 1024*1024)
	in.Buffer(buf, 16*1024*1024)
	w := bufio.NewWriter(os.Stdout)

	ctx := context.Background()
	for {
		if !in.Scan() {
			if err := in.Err(); err != nil && err != io.EOF {
				writeResp(w, translateResponse{ID: "", OK: false, Error: fmt.Sprintf("scan error: %v", err)})
			}
			break
		}
		resp := handle(ctx, in.Text())
		writeResp(w, resp)
	}
}
