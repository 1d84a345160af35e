package mxf

import "testing"

type noopWriter struct{}

func (noopWriter) GetDescriptor(caps Caps) (EssenceDescriptor, error) { return nil, nil }
func (noopWriter) GetEditRate(desc EssenceDescriptor, caps Caps, first *EssenceBuffer) (Rational, error) {
	return Rational{}, nil
}
func (noopWriter) GetTrackNumberTemplate(desc EssenceDescriptor, caps Caps) uint32 { return 0 }
func (noopWriter) UpdateDescriptor(desc EssenceDescriptor, caps Caps, buf *EssenceBuffer) {}
func (noopWriter) Write(buf *EssenceBuffer, flush bool) (WriteResult, error) {
	return WriteResult{}, nil
}
func (noopWriter) DataDefinitionUL() UL { return ULDataDefinitionPicture }

func TestRegistryResolveUnknownTemplate(t *testing.T) {
	if _, err := Resolve("test/does-not-exist"); err == nil {
		t.Fatal("expected error resolving an unregistered pad template")
	}
}

func TestRegistryRegisterAndResolve(t *testing.T) {
	Register("test/writer-unit", func() EssenceElementWriter { return noopWriter{} })
	w, err := Resolve("test/writer-unit")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if w.DataDefinitionUL() != ULDataDefinitionPicture {
		t.Fatal("resolved writer is not the registered factory's instance")
	}
}

func TestRegistryDuplicateRegistrationPanics(t *testing.T) {
	Register("test/writer-dup", func() EssenceElementWriter { return noopWriter{} })
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register("test/writer-dup", func() EssenceElementWriter { return noopWriter{} })
}
