// Package structio decodes a byte stream written under a foreign compiler's
// struct layout rules.
//
// The stream carries no layout metadata. A caller describes each struct by
// bracketing its member reads with StartStruct and EndStruct; the Session
// applies the layout.Config to insert implicit alignment padding, drain
// partially consumed bitfield units, correct integer byte order and undo the
// optional zero-run compression, so that the sequence of reads reproduces the
// values a program built for the source platform would have seen.
//
// Reads must be issued in exactly the order the source layout wrote them;
// there is no random access and no way to resynchronise after a mismatch.
//
// # Usage
//
//	sess, err := structio.New(cfg)
//	if err := sess.Open("bones.dat"); err != nil { ... }
//	defer sess.Close()
//
//	st, _ := sess.StartStruct(structio.NoStruct, true, structio.W4)
//	x, _ := sess.ReadInt(structio.W4, structio.Width(cfg.IntWidth), st)
//	flags, _ := sess.ReadBits(st, 3)
//	size, _ := sess.EndStruct(st)
//
// # Sizing
//
// StartCount switches the session into a dry run: every read yields zero
// bytes without touching the stream or its compression state, and GetCount
// returns the size of the last struct ended in between.
package structio
