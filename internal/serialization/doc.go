// Package serialization reads and writes the .born tensor file format used
// for stream checkpoints.
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00  Magic "BORN"
//	    0x04  Version (uint32 LE)
//	    0x08  Flags (uint32 LE)
//	    0x10  Header size (uint64 LE)
//	    0x18  Data size (uint64 LE)
//	    0x20  SHA-256 of the data section
//	  [Header: JSON metadata]
//	  [Padding to 64 bytes]
//	  [Tensor data: raw little-endian bytes, in header order]
//
// Example usage:
//
//	header := serialization.Header{ModelType: "Stream"}
//	if err := serialization.WriteFile("model.born", s.StateDict(), header); err != nil {
//	    log.Fatal(err)
//	}
//
//	stateDict, header, err := serialization.ReadFile("model.born", backend.Device())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = s.LoadStateDict(stateDict)
package serialization
