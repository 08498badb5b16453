package backend

// Mode gates what operations a File handle (and everything opened beneath
// it) is allowed to perform, mirroring the h5py/zarr-python file-mode
// convention referenced throughout the z5 sources. A Mode only gates
// permissions (CanRead/CanWrite/CanCreate); the create/overwrite/must-exist
// notes below name the convention each mode comes from, and opening a
// backend under a mode does not itself create or truncate anything.
type Mode string

const (
	ModeRead        Mode = "r"  // read only, must exist
	ModeReadWrite    Mode = "r+" // read/write, must exist
	ModeCreate      Mode = "w"  // create, overwrite if it exists
	ModeCreateNew   Mode = "w-" // create, fail if it exists
	ModeAppend      Mode = "a"  // read/write, create if it doesn't exist
)

// Valid reports whether m is one of the five recognized modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeRead, ModeReadWrite, ModeCreate, ModeCreateNew, ModeAppend:
		return true
	default:
		return false
	}
}

// CanRead reports whether the mode permits reads.
func (m Mode) CanRead() bool { return m != "" }

// CanWrite reports whether the mode permits writes to existing data.
func (m Mode) CanWrite() bool {
	switch m {
	case ModeReadWrite, ModeCreate, ModeCreateNew, ModeAppend:
		return true
	default:
		return false
	}
}

// CanCreate reports whether the mode permits creating new groups/datasets.
func (m Mode) CanCreate() bool {
	switch m {
	case ModeCreate, ModeCreateNew, ModeAppend:
		return true
	default:
		return false
	}
}
