package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
)

func TestImageRoundTrip(t *testing.T) {
	src, _ := newTestVM(t, "")
	runLines(src,
		"to sq :n",
		"output :n * :n",
		"end",
		`make "greeting [hello |big world|]`,
		`make "count 3`,
		`pprop "sam "age 42`,
	)

	var buf bytes.Buffer
	if err := src.SaveImage(&buf); err != nil {
		t.Fatalf("SaveImage: %v", err)
	}

	dst, out := newTestVM(t, "")
	if err := dst.LoadImage(&buf); err != nil {
		t.Fatalf("LoadImage: %v", err)
	}
	runLines(dst, "print sq :count", "show :greeting", `print gprop "sam "age`, "show procedures")
	want := "9\n[hello big world]\n42\n[sq]\n"
	if got := out.String(); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if n := dst.heap.Length(dst.Eval(":greeting").Value().Node()); n != 2 {
		t.Errorf("greeting has %d items, want 2", n)
	}
}

func TestSnapshotContents(t *testing.T) {
	v, _ := newTestVM(t, "")
	runLines(v, "to greet :who", `print sentence "hi :who`, "end", `make "x "abc`)
	img := v.Snapshot()

	if img.Magic != ImageMagic || img.Version != ImageVersion {
		t.Errorf("header = %q/%d", img.Magic, img.Version)
	}
	if len(img.Procedures) != 1 {
		t.Fatalf("procedures = %+v", img.Procedures)
	}
	p := img.Procedures[0]
	if p.Name != "greet" || strings.Join(p.Params, ",") != "who" {
		t.Errorf("procedure = %+v", p)
	}
	if len(p.Lines) != 1 || p.Lines[0] != `print sentence "hi :who` {
		t.Errorf("lines = %q", p.Lines)
	}
	if len(img.Globals) != 1 || img.Globals[0].Literal != `"abc` {
		t.Errorf("globals = %+v", img.Globals)
	}
}

func TestLoadImageRejectsForeignData(t *testing.T) {
	v, _ := newTestVM(t, "")

	bad, err := cbor.Marshal(Image{Magic: "NOPE", Version: ImageVersion})
	if err != nil {
		t.Fatal(err)
	}
	if err := v.LoadImage(bytes.NewReader(bad)); err == nil {
		t.Error("accepted an image with the wrong magic")
	}

	future, err := cbor.Marshal(Image{Magic: ImageMagic, Version: ImageVersion + 1})
	if err != nil {
		t.Fatal(err)
	}
	if err := v.LoadImage(bytes.NewReader(future)); err == nil {
		t.Error("accepted an image from a newer version")
	}

	if err := v.LoadImage(strings.NewReader("not cbor at all")); err == nil {
		t.Error("accepted garbage")
	}
}

func TestSnapshotKeepsNumericLookingWords(t *testing.T) {
	v, _ := newTestVM(t, "")
	runLines(v, `make "code "007`, `make "n "12`, `make "m 2.5`)
	got := map[string]string{}
	for _, g := range v.Snapshot().Globals {
		got[g.Name] = g.Literal
	}
	want := map[string]string{"code": `"007`, "n": "12", "m": "2.5"}
	for name, lit := range want {
		if got[name] != lit {
			t.Errorf("literal for %s = %q, want %q", name, got[name], lit)
		}
	}
}
