package protection

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/require"

	kerrors "github.com/PolarWolf314/confseal/internal/errors"
)

var sectionFixtures = map[string]string{
	"flat": `<mySection name="mySection" timeout="30"><add key="a" value="1"/><add key="b" value="2"/></mySection>`,
	"nested": `<mySection>
  <group name="outer">
    <group name="inner">
      <item key="deep" value="value with &quot;quotes&quot; &amp; ampersands"/>
    </group>
    <!-- a comment inside the section -->
    <text>  some   spaced text  </text>
  </group>
</mySection>`,
	"text only":       `<connectionStrings>Server=db;Password=p@ss&lt;word&gt;</connectionStrings>`,
	"unicode":         `<appSettings><add key="greeting" value="kia ora, Aotearoa ✓"/></appSettings>`,
	"prefixed":        `<cfg:mySection xmlns:cfg="urn:example:config" cfg:mode="strict"><cfg:add key="a" value="1"><cfg:nested/></cfg:add></cfg:mySection>`,
	"default xmlns":   `<mySection xmlns="urn:example:config"><add key="a" value="1"/></mySection>`,
	"empty":           `<mySection/>`,
	"cdata and mixed": `<mySection>before<![CDATA[<not-xml> & stuff]]>after<child/></mySection>`,
}

func parseElement(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(xml))
	require.NotNil(t, doc.Root())
	return doc.Root().Copy()
}

func serialize(t *testing.T, el *etree.Element) string {
	t.Helper()
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())
	s, err := doc.WriteToString()
	require.NoError(t, err)
	return s
}

func cipherDataOf(t *testing.T, env *etree.Element, tag string) *etree.Element {
	t.Helper()
	child := env.SelectElement(tag)
	require.NotNil(t, child, "missing %s", tag)
	cd := child.SelectElement(CipherDataTag)
	require.NotNil(t, cd, "missing %s/%s", tag, CipherDataTag)
	return cd
}

func TestEnvelope_RoundTrip(t *testing.T) {
	priv := testKey()
	pub := NewRSAPublicKey(&priv.PublicKey)

	for name, fixture := range sectionFixtures {
		t.Run(name, func(t *testing.T) {
			section := parseElement(t, fixture)

			env, err := Encrypt(section, pub)
			require.NoError(t, err)

			restored, err := Decrypt(env, NewRSAPrivateKey(priv))
			require.NoError(t, err)
			require.Equal(t, serialize(t, section), serialize(t, restored))
		})
	}
}

func TestEnvelope_RoundTripAllPayloadCiphers(t *testing.T) {
	priv := testKey()
	section := parseElement(t, sectionFixtures["nested"])

	for _, id := range []string{AlgorithmAES128CBC, AlgorithmAES192CBC, AlgorithmAES256CBC, AlgorithmTripleDESCBC} {
		t.Run(id, func(t *testing.T) {
			env, err := EncryptWithAlgorithm(section, NewRSAPublicKey(&priv.PublicKey), id)
			require.NoError(t, err)
			require.Equal(t, id, env.SelectElement(EncryptedDataTag).SelectAttrValue(AlgorithmAttr, ""))

			restored, err := Decrypt(env, NewRSAPrivateKey(priv))
			require.NoError(t, err)
			require.Equal(t, serialize(t, section), serialize(t, restored))
		})
	}
}

func TestEnvelope_Shape(t *testing.T) {
	priv := testKey()
	section := parseElement(t, `<cfg:mySection xmlns:cfg="urn:example:config" name="mine" secret="hidden"><cfg:add key="a"/></cfg:mySection>`)

	env, err := Encrypt(section, NewRSAPublicKey(&priv.PublicKey))
	require.NoError(t, err)

	require.Equal(t, "cfg:mySection", env.FullTag())
	require.True(t, IsEnvelope(env))
	require.Equal(t, "mine", env.SelectAttrValue(NameAttr, ""))
	require.Equal(t, "urn:example:config", env.SelectAttrValue("xmlns:cfg", ""))
	require.Nil(t, env.SelectAttr("secret"), "non-identifying attributes stay inside the payload")

	children := env.ChildElements()
	require.Len(t, children, 2)
	require.Equal(t, EncryptedKeyTag, children[0].Tag)
	require.Equal(t, AlgorithmRSAv15, children[0].SelectAttrValue(AlgorithmAttr, ""))
	require.Equal(t, EncryptedDataTag, children[1].Tag)
	require.Equal(t, AlgorithmAES128CBC, children[1].SelectAttrValue(AlgorithmAttr, ""))

	wrapped, err := base64.StdEncoding.DecodeString(cipherDataOf(t, env, EncryptedKeyTag).Text())
	require.NoError(t, err)
	require.Len(t, wrapped, priv.Size())

	ciphertext, err := base64.StdEncoding.DecodeString(cipherDataOf(t, env, EncryptedDataTag).Text())
	require.NoError(t, err)
	require.Zero(t, len(ciphertext)%16)
	require.NotContains(t, serialize(t, env), "hidden")
}

func TestEncrypt_DoesNotMutateInput(t *testing.T) {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromString(`<configuration><cfg:s xmlns:cfg="urn:x"><cfg:a/></cfg:s></configuration>`))
	section := doc.Root().SelectElement("s")
	before, err := doc.WriteToString()
	require.NoError(t, err)

	_, err = Encrypt(section, NewRSAPublicKey(&testKey().PublicKey))
	require.NoError(t, err)

	after, err := doc.WriteToString()
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, doc.Root(), section.Parent())
}

func TestEncrypt_NonDeterministic(t *testing.T) {
	priv := testKey()
	section := parseElement(t, sectionFixtures["flat"])

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		env, err := Encrypt(section, NewRSAPublicKey(&priv.PublicKey))
		require.NoError(t, err)

		data := cipherDataOf(t, env, EncryptedDataTag).Text()
		require.False(t, seen[data], "ciphertext repeated on call %d", i)
		seen[data] = true

		restored, err := Decrypt(env, NewRSAPrivateKey(priv))
		require.NoError(t, err)
		require.Equal(t, serialize(t, section), serialize(t, restored))
	}
}

func TestDecrypt_RequiresPrivateKey(t *testing.T) {
	pub := NewRSAPublicKey(&testKey().PublicKey)
	env, err := Encrypt(parseElement(t, sectionFixtures["flat"]), pub)
	require.NoError(t, err)

	restored, err := Decrypt(env, pub)
	require.ErrorIs(t, err, kerrors.ErrMissingPrivateKey)
	require.Nil(t, restored)
}

func TestDecrypt_WrongKey(t *testing.T) {
	env, err := Encrypt(parseElement(t, sectionFixtures["nested"]), NewRSAPublicKey(&testKey().PublicKey))
	require.NoError(t, err)

	restored, err := Decrypt(env, NewRSAPrivateKey(otherKey()))
	require.Error(t, err)
	require.Nil(t, restored)
	require.True(t,
		errors.Is(err, kerrors.ErrPaddingOrKeyMismatch) || errors.Is(err, kerrors.ErrMalformedInnerXML),
		"unexpected error: %v", err)
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	priv := testKey()
	env, err := Encrypt(parseElement(t, sectionFixtures["nested"]), NewRSAPublicKey(&priv.PublicKey))
	require.NoError(t, err)

	original, err := base64.StdEncoding.DecodeString(cipherDataOf(t, env, EncryptedDataTag).Text())
	require.NoError(t, err)

	// There is no MAC, so a flip can in principle survive the padding and XML
	// checks. Require failure on a large majority rather than on every flip.
	failures := 0
	for i := range original {
		tampered := append([]byte(nil), original...)
		tampered[i] ^= 0x01

		candidate := env.Copy()
		cipherDataOf(t, candidate, EncryptedDataTag).SetText(base64.StdEncoding.EncodeToString(tampered))

		restored, err := Decrypt(candidate, NewRSAPrivateKey(priv))
		if err == nil {
			require.NotNil(t, restored)
			continue
		}
		require.Nil(t, restored)
		require.True(t,
			errors.Is(err, kerrors.ErrPaddingOrKeyMismatch) || errors.Is(err, kerrors.ErrMalformedInnerXML),
			"flip at byte %d: unexpected error: %v", i, err)
		failures++
	}

	require.GreaterOrEqual(t, failures*10, len(original)*9,
		"only %d of %d single-byte flips were detected", failures, len(original))
}

func TestDecrypt_UnsupportedAlgorithms(t *testing.T) {
	priv := testKey()

	tests := []struct {
		name  string
		tag   string
		algID string
	}{
		{"unknown payload cipher", EncryptedDataTag, "http://www.w3.org/2001/04/xmlenc#serpent-cbc"},
		{"key wrap identifier as payload", EncryptedDataTag, AlgorithmRSAv15},
		{"OAEP key wrap", EncryptedKeyTag, AlgorithmRSAOAEP},
		{"unknown key wrap", EncryptedKeyTag, "urn:example:rsa"},
		{"payload identifier as key wrap", EncryptedKeyTag, AlgorithmAES256CBC},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Encrypt(parseElement(t, sectionFixtures["flat"]), NewRSAPublicKey(&priv.PublicKey))
			require.NoError(t, err)
			env.SelectElement(tt.tag).CreateAttr(AlgorithmAttr, tt.algID)

			restored, err := Decrypt(env, NewRSAPrivateKey(priv))
			require.ErrorIs(t, err, kerrors.ErrUnsupportedAlgorithm)
			require.Nil(t, restored)
		})
	}
}

func TestDecrypt_MalformedEnvelope(t *testing.T) {
	priv := testKey()

	tests := []struct {
		name   string
		mutate func(env *etree.Element)
	}{
		{"missing protected marker", func(env *etree.Element) { env.RemoveAttr(ProtectedAttr) }},
		{"missing EncryptedKey", func(env *etree.Element) { env.RemoveChild(env.SelectElement(EncryptedKeyTag)) }},
		{"missing EncryptedData", func(env *etree.Element) { env.RemoveChild(env.SelectElement(EncryptedDataTag)) }},
		{"missing Algorithm", func(env *etree.Element) { env.SelectElement(EncryptedDataTag).RemoveAttr(AlgorithmAttr) }},
		{"missing CipherData", func(env *etree.Element) {
			data := env.SelectElement(EncryptedKeyTag)
			data.RemoveChild(data.SelectElement(CipherDataTag))
		}},
		{"bad base64", func(env *etree.Element) {
			env.SelectElement(EncryptedDataTag).SelectElement(CipherDataTag).SetText("not*base64!")
		}},
		{"empty cipher data", func(env *etree.Element) {
			env.SelectElement(EncryptedKeyTag).SelectElement(CipherDataTag).SetText("")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Encrypt(parseElement(t, sectionFixtures["flat"]), NewRSAPublicKey(&priv.PublicKey))
			require.NoError(t, err)
			tt.mutate(env)

			restored, err := Decrypt(env, NewRSAPrivateKey(priv))
			require.ErrorIs(t, err, kerrors.ErrMalformedEnvelope)
			require.Nil(t, restored)
		})
	}
}

func TestDecrypt_WrappedBase64(t *testing.T) {
	priv := testKey()
	section := parseElement(t, sectionFixtures["flat"])
	env, err := Encrypt(section, NewRSAPublicKey(&priv.PublicKey))
	require.NoError(t, err)

	cd := cipherDataOf(t, env, EncryptedKeyTag)
	text := cd.Text()
	cd.SetText("\n    " + text[:40] + "\n    " + text[40:] + "\n  ")

	restored, err := Decrypt(env, NewRSAPrivateKey(priv))
	require.NoError(t, err)
	require.Equal(t, serialize(t, section), serialize(t, restored))
}

// buildRawEnvelope encrypts arbitrary bytes as if they were a serialized section.
func buildRawEnvelope(t *testing.T, tag string, payload []byte) *etree.Element {
	t.Helper()
	alg := mustAlgorithm(t, AlgorithmAES128CBC)
	pms, err := NewPreMasterSecret(alg)
	require.NoError(t, err)
	key, iv, err := SplitPreMasterSecret(pms, alg)
	require.NoError(t, err)

	ciphertext, err := EncryptPayload(payload, key, iv, alg)
	require.NoError(t, err)
	wrapped, err := WrapKey(pms, NewRSAPublicKey(&testKey().PublicKey))
	require.NoError(t, err)

	return buildEnvelope(etree.NewElement(tag), wrapped, ciphertext, alg)
}

func TestDecrypt_MalformedInnerXML(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not xml", "definitely not xml"},
		{"unquoted attribute", "<mySection key=unquoted/>"},
		{"empty", ""},
		{"different root", "<otherSection/>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := buildRawEnvelope(t, "mySection", []byte(tt.payload))

			restored, err := Decrypt(env, NewRSAPrivateKey(testKey()))
			require.ErrorIs(t, err, kerrors.ErrMalformedInnerXML)
			require.Nil(t, restored)
		})
	}
}

func TestEncrypt_KeyTooSmall(t *testing.T) {
	env, err := EncryptWithAlgorithm(parseElement(t, sectionFixtures["flat"]), &tinyKey{size: 40}, AlgorithmAES256CBC)
	require.ErrorIs(t, err, kerrors.ErrKeyTooSmall)
	require.Nil(t, env)
}

func TestEncrypt_UnsupportedPayloadAlgorithm(t *testing.T) {
	env, err := EncryptWithAlgorithm(parseElement(t, sectionFixtures["flat"]), NewRSAPublicKey(&testKey().PublicKey), AlgorithmRSAOAEP)
	require.ErrorIs(t, err, kerrors.ErrUnsupportedAlgorithm)
	require.Nil(t, env)
}

func TestIsEnvelope(t *testing.T) {
	require.False(t, IsEnvelope(nil))
	require.False(t, IsEnvelope(parseElement(t, `<s/>`)))
	require.False(t, IsEnvelope(parseElement(t, `<s protected="false"/>`)))
	require.True(t, IsEnvelope(parseElement(t, `<s protected="true"/>`)))
	require.True(t, IsEnvelope(parseElement(t, `<s protected="True"/>`)))
}
