// Command zcrack recovers a ZipCrypto archive's internal cipher state
// from known plaintext, and optionally the textual password that
// produced it, reproducing the Biham-Kocher known-plaintext attack as
// a standalone tool.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/absfs/osfs"
	"github.com/spf13/cobra"

	"github.com/kapsa-labs/zcrack"
	zipformat "github.com/kapsa-labs/zcrack/zip"
)

var (
	cipherFile string
	plainFile  string
	offset     int
	extraArg   []string
	keysArg    string
	exhaustive bool

	changePasswordArchive string
	changePasswordNew     string

	recoverCharset string
	recoverMinLen  int
	recoverMaxLen  int

	listArchive string
)

func main() {
	root := &cobra.Command{
		Use:   "zcrack",
		Short: "Recover ZipCrypto internal state and passwords from known plaintext",
	}

	root.PersistentFlags().StringVarP(&cipherFile, "cipher-file", "c", "", "file containing ciphertext bytes")
	root.PersistentFlags().StringVarP(&plainFile, "plain-file", "p", "", "file containing known plaintext bytes")
	root.PersistentFlags().IntVarP(&offset, "offset", "o", 0, "offset of the known plaintext relative to the ciphertext after its 12-byte encryption header (may be negative)")
	root.PersistentFlags().StringArrayVarP(&extraArg, "extra", "x", nil, "extra known plaintext byte as pos:hex, repeatable")
	root.PersistentFlags().StringVarP(&keysArg, "keys", "k", "", "known internal state as X:Y:Z in hexadecimal")
	root.PersistentFlags().BoolVarP(&exhaustive, "exhaustive", "e", false, "continue searching after the first solution")

	attackCmd := &cobra.Command{
		Use:   "attack",
		Short: "Recover the internal cipher state from known plaintext",
		RunE:  runAttack,
	}
	root.AddCommand(attackCmd)

	recoverCmd := &cobra.Command{
		Use:   "recover-password",
		Short: "Recover a textual password from a known internal state (-k/--keys)",
		RunE:  runRecoverPassword,
	}
	recoverCmd.Flags().StringVar(&recoverCharset, "charset", "?a", "charset expression, e.g. ?l?d?s")
	recoverCmd.Flags().IntVar(&recoverMinLen, "min-length", 1, "minimum password length to try")
	recoverCmd.Flags().IntVar(&recoverMaxLen, "max-length", 9, "maximum password length to try")
	root.AddCommand(recoverCmd)

	changeKeysCmd := &cobra.Command{
		Use:   "change-password",
		Short: "Rewrite a ZIP archive's encrypted entries under a new password (-U/--change-password)",
		RunE:  runChangePassword,
	}
	changeKeysCmd.Flags().StringVarP(&changePasswordArchive, "change-password", "U", "", "output path for the rewritten archive")
	changeKeysCmd.Flags().StringVarP(&changePasswordNew, "password", "", "", "new password")
	root.AddCommand(changeKeysCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List a ZIP archive's entries and their encryption (-L/--list)",
		RunE:  runList,
	}
	listCmd.Flags().StringVarP(&listArchive, "list", "L", "", "ZIP archive to inspect")
	root.AddCommand(listCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newProgress() *zcrack.Progress {
	prog := zcrack.NewProgress(os.Stderr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		prog.SetCanceled()
	}()

	return prog
}

func parseExtra(args []string) (map[int]byte, error) {
	if len(args) == 0 {
		return nil, nil
	}
	extra := make(map[int]byte, len(args))
	for _, a := range args {
		parts := strings.SplitN(a, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid --extra value %q, want pos:hex", a)
		}
		pos, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, fmt.Errorf("invalid --extra position %q: %w", parts[0], err)
		}
		b, err := strconv.ParseUint(parts[1], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid --extra byte %q: %w", parts[1], err)
		}
		extra[pos] = byte(b)
	}
	return extra, nil
}

func parseKeys(s string) (zcrack.Keys, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return zcrack.Keys{}, fmt.Errorf("invalid --keys value %q, want X:Y:Z", s)
	}
	var k zcrack.Keys
	vals := make([]uint32, 3)
	for i, p := range parts {
		v, err := strconv.ParseUint(p, 16, 32)
		if err != nil {
			return zcrack.Keys{}, fmt.Errorf("invalid key component %q: %w", p, err)
		}
		vals[i] = uint32(v)
	}
	k.X, k.Y, k.Z = vals[0], vals[1], vals[2]
	return k, nil
}

func runAttack(cmd *cobra.Command, args []string) error {
	if cipherFile == "" || plainFile == "" {
		return fmt.Errorf("--cipher-file and --plain-file are required")
	}
	extra, err := parseExtra(extraArg)
	if err != nil {
		return err
	}

	fs := osfs.New()
	data, err := zcrack.LoadData(fs, cipherFile, plainFile, offset, extra)
	if err != nil {
		return err
	}

	prog := newProgress()
	zr := zcrack.NewZreduction(data.Keystream)
	zr.Generate()
	zr.Reduce()

	keys, err := zcrack.Attack(data, zr.Values(), zr.Index(), exhaustive, prog)
	if err != nil {
		return err
	}

	for _, k := range keys {
		fmt.Printf("keys: %s\n", k)
	}
	return nil
}

func runRecoverPassword(cmd *cobra.Command, args []string) error {
	if keysArg == "" {
		return fmt.Errorf("--keys is required")
	}
	keys, err := parseKeys(keysArg)
	if err != nil {
		return err
	}
	charset, err := zcrack.ParseCharset(recoverCharset)
	if err != nil {
		return err
	}

	prog := newProgress()
	passwords, err := zcrack.RecoverPassword(keys, charset, recoverMinLen, recoverMaxLen, exhaustive, prog)
	if err != nil {
		return err
	}

	for _, p := range passwords {
		fmt.Printf("password: %q\n", p)
	}
	return nil
}

func runChangePassword(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("expected exactly one archive path argument")
	}
	if keysArg == "" {
		return fmt.Errorf("--keys is required")
	}
	if changePasswordArchive == "" || changePasswordNew == "" {
		return fmt.Errorf("--change-password and --password are required")
	}

	oldKeys, err := parseKeys(keysArg)
	if err != nil {
		return err
	}
	newKeys := zcrack.KeysFromPassword([]byte(changePasswordNew))

	fs := osfs.New()
	in, err := fs.OpenFile(args[0], os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer in.Close()

	r, err := zipformat.NewReader(in)
	if err != nil {
		return err
	}

	out, err := fs.OpenFile(changePasswordArchive, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer out.Close()

	prog := newProgress()
	return r.ChangeKeys(out, oldKeys, newKeys, prog)
}

func runList(cmd *cobra.Command, args []string) error {
	if listArchive == "" {
		return fmt.Errorf("--list is required")
	}

	fs := osfs.New()
	f, err := fs.OpenFile(listArchive, os.O_RDONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()

	r, err := zipformat.NewReader(f)
	if err != nil {
		return err
	}
	entries, err := r.Entries()
	if err != nil {
		return err
	}

	for _, e := range entries {
		fmt.Printf("%-40s %10d %10d  %s\n", e.Name, e.PackedSize, e.UncompressedSize, encryptionLabel(e.Encryption))
	}
	return nil
}

func encryptionLabel(e zipformat.Encryption) string {
	switch e {
	case zipformat.EncryptionNone:
		return "none"
	case zipformat.EncryptionTraditional:
		return "ZipCrypto"
	default:
		return "unsupported"
	}
}
