package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sushant-115/slabdb/config"
	"github.com/sushant-115/slabdb/core/datatypes"
	"github.com/sushant-115/slabdb/core/storage_engine/common"
	"github.com/sushant-115/slabdb/core/storage_engine/valuelog"
	pagemanager "github.com/sushant-115/slabdb/core/write_engine/page_manager"
	"go.uber.org/zap"
)

var errExit = errors.New("exit")

// shell runs CLI commands against one open page.
type shell struct {
	pm     *pagemanager.PageManager
	store  *pagemanager.FileStore
	page   string
	backup config.BackupConfig
	logger *zap.Logger
	out    io.Writer
}

// completer offers the command names, and type names after put/putraw.
func completer() *readline.PrefixCompleter {
	types := make([]readline.PrefixCompleterInterface, 0, int(datatypes.TypeUUID))
	for t := datatypes.TypeByte; t <= datatypes.TypeUUID; t++ {
		types = append(types, readline.PcItem(t.String()))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("put", types...),
		readline.PcItem("putraw", types...),
		readline.PcItem("get"),
		readline.PcItem("raw"),
		readline.PcItem("dump"),
		readline.PcItem("scan"),
		readline.PcItem("free"),
		readline.PcItem("tip"),
		readline.PcItem("flush"),
		readline.PcItem("backup"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}

// exec runs one command. It returns errExit for exit/quit; any other error
// is a failed command and the caller keeps going.
func (s *shell) exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return nil
	}

	switch strings.ToLower(args[0]) {
	case "put":
		return s.put(ctx, args[1:], false)
	case "putraw":
		return s.put(ctx, args[1:], true)
	case "get":
		return s.get(args[1:])
	case "raw":
		return s.raw(args[1:])
	case "dump":
		return s.dump(args[1:])
	case "scan":
		return s.scan()
	case "free":
		fmt.Fprintf(s.out, "Free space: %d bytes\n", s.pm.FreeSpace())
	case "tip":
		return s.pm.View(func(p *pagemanager.Page) error {
			fmt.Fprintf(s.out, "Tip: %d\n", p.Tip())
			return nil
		})
	case "flush":
		if err := s.pm.Flush(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "Page flushed.")
	case "backup":
		return s.backupTo(ctx, args[1:])
	case "help":
		s.help()
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("unknown command %q, type 'help' for a list of commands", args[0])
	}
	return nil
}

// put appends a value. Framed values can be read back with get and scan;
// raw values use the bare tag+payload encoding and need raw to read.
func (s *shell) put(ctx context.Context, args []string, raw bool) error {
	if len(args) < 2 {
		return errors.New("put requires <type> <value>")
	}
	t, err := datatypes.ParseType(args[0])
	if err != nil {
		return err
	}
	v, err := datatypes.Parse(t, strings.Join(args[1:], " "))
	if err != nil {
		return err
	}

	var offset uint16
	if raw {
		offset, err = s.pm.Append(ctx, datatypes.Encode(v))
	} else {
		err = s.pm.Update(ctx, func(p *pagemanager.Page) error {
			offset, err = valuelog.Append(p, v)
			return err
		})
	}
	if err != nil {
		return err
	}

	s.logger.Debug("Value stored", zap.Stringer("type", t), zap.Uint16("offset", offset), zap.Bool("raw", raw))
	fmt.Fprintf(s.out, "Stored at offset %d, new tip: %d\n", offset, offset+uint16(s.storedSize(v, raw)))
	return nil
}

func (s *shell) storedSize(v datatypes.Value, raw bool) int {
	if raw {
		return len(datatypes.Encode(v))
	}
	return datatypes.FramedSize(v)
}

func (s *shell) get(args []string) error {
	if len(args) < 1 {
		return errors.New("get requires <offset>")
	}
	offset, err := parseOffset(args[0])
	if err != nil {
		return err
	}
	return s.pm.View(func(p *pagemanager.Page) error {
		v, n, err := valuelog.ReadAt(p, offset)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%s (%d bytes)\n", datatypes.Format(v), n)
		return nil
	})
}

func (s *shell) raw(args []string) error {
	if len(args) < 2 {
		return errors.New("raw requires <offset> <length>")
	}
	offset, err := parseOffset(args[0])
	if err != nil {
		return err
	}
	length, err := strconv.Atoi(args[1])
	if err != nil || length < 0 {
		return fmt.Errorf("invalid length %q", args[1])
	}
	return s.pm.View(func(p *pagemanager.Page) error {
		v, err := valuelog.ReadRaw(p, offset, length)
		if err != nil {
			return err
		}
		fmt.Fprintln(s.out, datatypes.Format(v))
		return nil
	})
}

func (s *shell) dump(args []string) error {
	if len(args) < 2 {
		return errors.New("dump requires <offset> <length>")
	}
	offset, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid offset %q", args[0])
	}
	length, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid length %q", args[1])
	}
	return s.pm.View(func(p *pagemanager.Page) error {
		b, err := p.ReadSpanChecked(offset, length)
		if err != nil {
			return err
		}
		fmt.Fprint(s.out, hex.Dump(b))
		return nil
	})
}

func (s *shell) scan() error {
	count := 0
	err := s.pm.View(func(p *pagemanager.Page) error {
		return valuelog.Scan(p, func(offset uint16, v datatypes.Value) error {
			fmt.Fprintf(s.out, "%5d  %s\n", offset, datatypes.Format(v))
			count++
			return nil
		})
	})
	fmt.Fprintf(s.out, "%d value(s)\n", count)
	return err
}

func (s *shell) backupTo(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("backup requires <path>")
	}
	// The copy reads the file, so it has to be current.
	if err := s.pm.Flush(ctx); err != nil {
		return err
	}
	sum, err := common.CopyPageFile(ctx, s.store.Path(s.page), args[0], s.backup.RateBytesPerSec, s.backup.Verify)
	if err != nil {
		return err
	}
	s.logger.Info("Page backed up", zap.String("dst", args[0]), zap.String("sha256", hex.EncodeToString(sum)))
	fmt.Fprintf(s.out, "Backed up to %s (sha256 %x)\n", args[0], sum)
	return nil
}

func (s *shell) help() {
	fmt.Fprintln(s.out, "Commands:")
	fmt.Fprintln(s.out, "  put <type> <value>       append a value")
	fmt.Fprintln(s.out, "  putraw <type> <value>    append without a length prefix (read with raw)")
	fmt.Fprintln(s.out, "  get <offset>             read the value stored at offset")
	fmt.Fprintln(s.out, "  raw <offset> <length>    read an unprefixed value with a payload of length bytes")
	fmt.Fprintln(s.out, "  dump <offset> <length>   hex dump of page bytes")
	fmt.Fprintln(s.out, "  scan                     list every value")
	fmt.Fprintln(s.out, "  free | tip               show free space or the write cursor")
	fmt.Fprintln(s.out, "  flush                    write the page to disk")
	fmt.Fprintln(s.out, "  backup <path>            copy the page file to path")
	fmt.Fprintln(s.out, "  help")
	fmt.Fprintln(s.out, "  exit / quit")
	fmt.Fprintln(s.out, "Types: Byte Short Int Long UByte UShort UInt ULong ShortText Text LongText")
	fmt.Fprintln(s.out, "       ShortBinary Binary LongBinary DateTime Uuid")
}

func parseOffset(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid offset %q", s)
	}
	return uint16(n), nil
}
