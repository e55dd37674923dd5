package main

import (
	"encoding/csv"
	"flag"
	"io"
	"os"
	"reflect"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/milvus-io/milvus-flow/pkg/log"
	"github.com/milvus-io/milvus-flow/pkg/util/paramtable"
)

var (
	paramItemType = reflect.TypeOf(paramtable.ParamItem{})
	csvHeader     = []string{"key", "default", "version", "refreshable", "doc"}
)

// collect walks the exported fields of val depth first and returns one row
// per ParamItem.
func collect(val reflect.Value) [][]string {
	if val.Kind() != reflect.Struct {
		return nil
	}
	var rows [][]string
	for i := 0; i < val.NumField(); i++ {
		field := val.Type().Field(i)
		if !field.IsExported() {
			continue
		}
		if field.Type != paramItemType {
			rows = append(rows, collect(val.Field(i))...)
			continue
		}
		item := val.Field(i).Addr().Interface().(*paramtable.ParamItem)
		refreshable := field.Tag.Get("refreshable")
		if refreshable == "" {
			refreshable = "undefined"
		}
		rows = append(rows, []string{item.Key, item.GetValue(), item.Version, refreshable, item.Doc})
	}
	return rows
}

func writeConfigs(out io.Writer, params *paramtable.ComponentParam) error {
	rows := lo.UniqBy(collect(reflect.ValueOf(params).Elem()), func(row []string) string {
		return row[0]
	})
	log.Debug("collected params", zap.Int("count", len(rows)))

	w := csv.NewWriter(out)
	return w.WriteAll(append([][]string{csvHeader}, rows...))
}

func main() {
	output := flag.String("o", "configs.csv", "output file")
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Error("create file failed", zap.Error(err))
		os.Exit(-1)
	}
	defer f.Close()

	if err := writeConfigs(f, paramtable.Get()); err != nil {
		log.Error("write configs failed", zap.Error(err))
		os.Exit(-1)
	}
}
