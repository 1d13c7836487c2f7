package footer

import (
	"encoding/binary"

	"github.com/newrevit13/parquetcrypt/pqcrypto"
)

// WritePlaintext assembles a plaintext-footer-variant file tail: the
// footer envelope (and, if encProps is non-nil, the integrity trailer),
// followed by the 4-byte length and PAR1 magic.
func WritePlaintext(fileEnc *pqcrypto.FileEncryptor, algo pqcrypto.EncryptionAlgorithm, encProps *pqcrypto.FileEncryptionProperties, codec interface {
	EncodePlaintextFooterEnvelope(*pqcrypto.EncryptionAlgorithm, []byte) ([]byte, error)
}, footerBody []byte, signingNonce []byte) ([]byte, error) {
	var algoPtr *pqcrypto.EncryptionAlgorithm
	if encProps != nil {
		a := algo
		algoPtr = &a
	}

	envelope, err := codec.EncodePlaintextFooterEnvelope(algoPtr, footerBody)
	if err != nil {
		return nil, err
	}

	if encProps != nil {
		signer, err := fileEnc.GetFooterSigningEncryptor()
		if err != nil {
			return nil, err
		}
		frame, err := signer.SignedFooterEncrypt(footerBody, signingNonce)
		if err != nil {
			return nil, err
		}
		// SignedFooterEncrypt returns length(4)||nonce(12)||ciphertext||tag,
		// where tag is the last 16 bytes of the GCM output; the on-disk
		// trailer is just nonce||tag, discarding the ciphertext body.
		nonce := frame[4:16]
		tag := frame[len(frame)-16:]
		trailer := append(append([]byte{}, nonce...), tag...)
		envelope = append(envelope, trailer...)
	}

	out := append([]byte{}, envelope...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(envelope)))
	out = append(out, magicPlaintext[:]...)
	return out, nil
}

// WriteEncryptedFooter assembles an encrypted-footer-variant file tail:
// the crypto metadata prefix, the encrypted footer frame, the combined
// length, and the PARE magic.
func WriteEncryptedFooter(fileEnc *pqcrypto.FileEncryptor, cryptoMetaBytes []byte, footerBody []byte) ([]byte, error) {
	enc, err := fileEnc.GetFooterEncryptor()
	if err != nil {
		return nil, err
	}
	frame, err := enc.Encrypt(footerBody)
	if err != nil {
		return nil, err
	}

	combined := append([]byte{}, cryptoMetaBytes...)
	combined = append(combined, frame...)

	out := append([]byte{}, combined...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(combined)))
	out = append(out, magicEncryptedFooter[:]...)
	return out, nil
}
