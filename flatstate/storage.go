package flatstate

import (
	"fmt"
	"io"
	"os"

	"github.com/fastnear/nearflat/internal/binser"
	"github.com/fastnear/nearflat/internal/coretypes"
)

// SnapshotVersion is the only version byte Load accepts.
const SnapshotVersion uint8 = 1

// Save writes s to path as a versioned binary snapshot: a version byte,
// the config, the block header, the block hash, and the four projection
// maps, in that order. The write is flushed before the file is closed;
// callers needing an atomic replace must stage to a temp file and rename
// it themselves.
func (s *FlatState) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return &StorageError{Msg: err.Error()}
	}
	defer f.Close()

	if err := s.encode(f); err != nil {
		return &StorageError{Msg: err.Error()}
	}
	if err := f.Sync(); err != nil {
		return &StorageError{Msg: err.Error()}
	}
	return nil
}

func (s *FlatState) encode(w io.Writer) error {
	bw := binser.NewWriter(w)
	bw.WriteUint8(SnapshotVersion)
	writeConfig(bw, s.Config)
	writeBlockHeader(bw, s.BlockHeader)
	bw.WriteFixed(s.BlockHash[:])
	writeData(bw, s.Data)
	return bw.Err()
}

// Load reads a snapshot previously written by Save. It fails with a
// StorageError("Unsupported version") if the leading byte is not
// SnapshotVersion, and with a StorageError wrapping the I/O message on any
// other read failure.
func Load(path string) (*FlatState, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &StorageError{Msg: err.Error()}
	}
	defer f.Close()

	s, err := decode(f)
	if err != nil {
		return nil, &StorageError{Msg: err.Error()}
	}
	return s, nil
}

func decode(r io.Reader) (*FlatState, error) {
	br := binser.NewReader(r)
	version := br.ReadUint8()
	if err := br.Err(); err != nil {
		return nil, err
	}
	if version != SnapshotVersion {
		return nil, fmt.Errorf(unsupportedVersionMsg)
	}

	config := readConfig(br)
	header := readBlockHeader(br)
	var hash coretypes.CryptoHash
	br.ReadFixed(hash[:])
	data := readData(br)
	if err := br.Err(); err != nil {
		return nil, err
	}

	return &FlatState{
		Config:      config,
		BlockHash:   hash,
		BlockHeader: header,
		Data:        data,
	}, nil
}

func writeConfig(w *binser.Writer, c Config) {
	w.WriteUint8(uint8(c.ChainId))
	writeFilter(w, c.Filter)
}

func readConfig(r *binser.Reader) Config {
	chainID := coretypes.ChainId(r.ReadUint8())
	filter := readFilter(r)
	return Config{ChainId: chainID, Filter: filter}
}

func writeFilter(w *binser.Writer, f Filter) {
	accounts := f.SortedAccounts()
	w.WriteUint64(uint64(len(accounts)))
	for _, a := range accounts {
		w.WriteString(string(a))
	}
	w.WriteUint64(uint64(len(f.AccountRanges)))
	for _, r := range f.AccountRanges {
		writeOptionalAccountId(w, r.Start)
		writeOptionalAccountId(w, r.End)
	}
}

func readFilter(r *binser.Reader) Filter {
	n := r.ReadUint64()
	accounts := make(map[coretypes.AccountId]struct{}, n)
	for i := uint64(0); i < n; i++ {
		accounts[coretypes.AccountId(r.ReadString())] = struct{}{}
	}
	rn := r.ReadUint64()
	ranges := make([]AccountRange, 0, rn)
	for i := uint64(0); i < rn; i++ {
		start := readOptionalAccountId(r)
		end := readOptionalAccountId(r)
		ranges = append(ranges, AccountRange{Start: start, End: end})
	}
	return Filter{Accounts: accounts, AccountRanges: ranges}
}

func writeOptionalAccountId(w *binser.Writer, a *coretypes.AccountId) {
	if a == nil {
		w.WriteUint8(0)
		return
	}
	w.WriteUint8(1)
	w.WriteString(string(*a))
}

func readOptionalAccountId(r *binser.Reader) *coretypes.AccountId {
	present := r.ReadUint8()
	if present == 0 {
		return nil
	}
	a := coretypes.AccountId(r.ReadString())
	return &a
}

func writeBlockHeader(w *binser.Writer, h coretypes.BlockHeaderInnerLite) {
	w.WriteUint64(h.Height)
	w.WriteFixed(h.Hash[:])
	w.WriteFixed(h.PrevHash[:])
	w.WriteUint64(h.Timestamp)
	w.WriteFixed(h.EpochId[:])
}

func readBlockHeader(r *binser.Reader) coretypes.BlockHeaderInnerLite {
	var h coretypes.BlockHeaderInnerLite
	h.Height = r.ReadUint64()
	r.ReadFixed(h.Hash[:])
	r.ReadFixed(h.PrevHash[:])
	h.Timestamp = r.ReadUint64()
	r.ReadFixed(h.EpochId[:])
	return h
}

func writeAccount(w *binser.Writer, a coretypes.Account) {
	amount := uint256ToBytes(a.Amount)
	locked := uint256ToBytes(a.Locked)
	w.WriteFixed(amount[:])
	w.WriteFixed(locked[:])
	w.WriteFixed(a.CodeHash[:])
	w.WriteUint64(a.StorageUsage)
}

func readAccount(r *binser.Reader) coretypes.Account {
	var amount, locked [32]byte
	r.ReadFixed(amount[:])
	r.ReadFixed(locked[:])
	var a coretypes.Account
	a.Amount = bytesToUint256(amount)
	a.Locked = bytesToUint256(locked)
	r.ReadFixed(a.CodeHash[:])
	a.StorageUsage = r.ReadUint64()
	return a
}

func writePublicKey(w *binser.Writer, k coretypes.PublicKey) {
	w.WriteUint8(uint8(k.Kind))
	w.WriteFixed(k.Data)
}

func readPublicKey(r *binser.Reader, kind coretypes.KeyKind) coretypes.PublicKey {
	size := 32
	if kind == coretypes.KeyKindSECP256K1 {
		size = 64
	}
	data := make([]byte, size)
	r.ReadFixed(data)
	return coretypes.PublicKey{Kind: kind, Data: data}
}

func writeAccessKey(w *binser.Writer, k coretypes.AccessKey) {
	w.WriteUint64(k.Nonce)
	if k.Permission.FullAccess {
		w.WriteUint8(1)
		return
	}
	w.WriteUint8(0)
	w.WriteString(string(k.Permission.Receiver))
	w.WriteUint64(uint64(len(k.Permission.MethodNames)))
	for _, m := range k.Permission.MethodNames {
		w.WriteString(m)
	}
	if k.Permission.Allowance == nil {
		w.WriteUint8(0)
	} else {
		w.WriteUint8(1)
		w.WriteUint64(*k.Permission.Allowance)
	}
}

func readAccessKey(r *binser.Reader) coretypes.AccessKey {
	var k coretypes.AccessKey
	k.Nonce = r.ReadUint64()
	full := r.ReadUint8()
	if full == 1 {
		k.Permission = coretypes.FullAccessPermission()
		return k
	}
	receiver := coretypes.AccountId(r.ReadString())
	n := r.ReadUint64()
	methods := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		methods = append(methods, r.ReadString())
	}
	hasAllowance := r.ReadUint8()
	var allowance *uint64
	if hasAllowance == 1 {
		v := r.ReadUint64()
		allowance = &v
	}
	k.Permission = coretypes.AccessKeyPermission{
		FullAccess:  false,
		Receiver:    receiver,
		MethodNames: methods,
		Allowance:   allowance,
	}
	return k
}

func writeData(w *binser.Writer, d *FlatStateData) {
	accounts := sortedAccountIds(d.Accounts)
	w.WriteUint64(uint64(len(accounts)))
	for _, id := range accounts {
		w.WriteString(string(id))
		writeAccount(w, d.Accounts[id])
	}

	akAccounts := sortedKeysOfAccessKeys(d.AccessKeys)
	w.WriteUint64(uint64(len(akAccounts)))
	for _, id := range akAccounts {
		w.WriteString(string(id))
		entries := sortedAccessKeyEntries(d.AccessKeys[id])
		w.WriteUint64(uint64(len(entries)))
		for _, e := range entries {
			writePublicKey(w, e.PublicKey)
			writeAccessKey(w, e.AccessKey)
		}
	}

	dataAccounts := sortedKeysOfData(d.Data)
	w.WriteUint64(uint64(len(dataAccounts)))
	for _, id := range dataAccounts {
		w.WriteString(string(id))
		inner := d.Data[id]
		keys := sortedStringKeys(inner)
		w.WriteUint64(uint64(len(keys)))
		for _, k := range keys {
			w.WriteBytes([]byte(k))
			w.WriteBytes(inner[k])
		}
	}

	codeAccounts := sortedKeysOfCode(d.ContractsCode)
	w.WriteUint64(uint64(len(codeAccounts)))
	for _, id := range codeAccounts {
		w.WriteString(string(id))
		w.WriteBytes(d.ContractsCode[id])
	}
}

func readData(r *binser.Reader) *FlatStateData {
	d := NewFlatStateData()

	n := r.ReadUint64()
	for i := uint64(0); i < n; i++ {
		id := coretypes.AccountId(r.ReadString())
		d.Accounts[id] = readAccount(r)
	}

	akN := r.ReadUint64()
	for i := uint64(0); i < akN; i++ {
		id := coretypes.AccountId(r.ReadString())
		entryN := r.ReadUint64()
		inner := make(map[string]coretypes.AccessKeyEntry, entryN)
		for j := uint64(0); j < entryN; j++ {
			kind := coretypes.KeyKind(r.ReadUint8())
			pk := readPublicKey(r, kind)
			ak := readAccessKey(r)
			inner[pk.String()] = coretypes.AccessKeyEntry{PublicKey: pk, AccessKey: ak}
		}
		if len(inner) > 0 {
			d.AccessKeys[id] = inner
		}
	}

	dataN := r.ReadUint64()
	for i := uint64(0); i < dataN; i++ {
		id := coretypes.AccountId(r.ReadString())
		keyN := r.ReadUint64()
		inner := make(map[string][]byte, keyN)
		for j := uint64(0); j < keyN; j++ {
			k := r.ReadBytes()
			v := r.ReadBytes()
			inner[string(k)] = v
		}
		if len(inner) > 0 {
			d.Data[id] = inner
		}
	}

	codeN := r.ReadUint64()
	for i := uint64(0); i < codeN; i++ {
		id := coretypes.AccountId(r.ReadString())
		d.ContractsCode[id] = r.ReadBytes()
	}

	return d
}
