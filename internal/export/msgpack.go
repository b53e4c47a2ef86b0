package export

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/Lumos-Labs-HQ/seedsmith/internal/seeder"
)

type msgpackWriter struct{}

func (msgpackWriter) Format() string { return "msgpack" }

// Write creates <entity>.msgpack per entity: an array of maps with keys in
// declaration order. Decimals are encoded as floats when exact and as strings
// otherwise.
func (msgpackWriter) Write(ctx context.Context, dir string, sys *seeder.GeneratedSystem) ([]string, error) {
	var files []string
	for _, entity := range sys.Order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entity + ".msgpack"
		if err := writeMsgpack(filepath.Join(dir, name), sys.Columns(entity), sys.Entities[entity]); err != nil {
			return nil, fmt.Errorf("failed to write msgpack for %s: %w", entity, err)
		}
		files = append(files, name)
	}
	return files, nil
}

func writeMsgpack(path string, columns []string, rows []seeder.Row) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	bw := bufio.NewWriter(file)
	enc := msgpack.NewEncoder(bw)
	if err := enc.EncodeArrayLen(len(rows)); err != nil {
		return err
	}
	for _, row := range rows {
		if err := enc.EncodeMapLen(len(columns)); err != nil {
			return err
		}
		for _, col := range columns {
			if err := enc.EncodeString(col); err != nil {
				return err
			}
			if err := enc.Encode(portable(row[col])); err != nil {
				return err
			}
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return file.Close()
}
