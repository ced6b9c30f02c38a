// RTMP Handshake
//
// Implements the server side (used when accepting the real client's
// connection) for both the complex (HMAC-SHA256 digest) and basic
// handshakes, and the client side (used when the proxy dials the real
// upstream server pretending to be that same client) for the basic
// handshake only.

package rtmpcore

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
)

const MESSAGE_FORMAT_0 = 0
const MESSAGE_FORMAT_1 = 1
const MESSAGE_FORMAT_2 = 2

const RTMP_SIG_SIZE = 1536
const SHA256DL = 32

var RandomCrud = []byte{
	0xf0, 0xee, 0xc2, 0x4a, 0x80, 0x68, 0xbe, 0xe8,
	0x2e, 0x00, 0xd0, 0xd1, 0x02, 0x9e, 0x7e, 0x57,
	0x6e, 0xec, 0x5d, 0x2d, 0x29, 0x80, 0x6f, 0xab,
	0x93, 0xb8, 0xe6, 0x36, 0xcf, 0xeb, 0x31, 0xae,
}

const GenuineFMSConst = "Genuine Adobe Flash Media Server 001"

var GenuineFMSConstCrud = append([]byte(GenuineFMSConst), RandomCrud...)

const GenuineFPConst = "Genuine Adobe Flash Player 001"

var GenuineFPConstCrud = append([]byte(GenuineFPConst), RandomCrud...)

func calcHmac(message []byte, key []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(message)
	return h.Sum(nil)
}

func compareSignatures(sig1 []byte, sig2 []byte) bool {
	if len(sig1) != len(sig2) {
		return false
	}

	result := true

	for j := 0; j < len(sig1); j++ {
		result = result && (sig1[j] == sig2[j])
	}

	return result
}

// GetClientGenuineConstDigestOffset finds the digest offset for the client const.
func GetClientGenuineConstDigestOffset(buf []byte) uint32 {
	var offset uint32

	offset = uint32(buf[0]) + uint32(buf[1]) + uint32(buf[2]) + uint32(buf[3])
	offset = (offset % 728) + 12

	return offset
}

// GetServerGenuineConstDigestOffset finds the digest offset for the server const.
func GetServerGenuineConstDigestOffset(buf []byte) uint32 {
	var offset uint32

	offset = uint32(buf[0]) + uint32(buf[1]) + uint32(buf[2]) + uint32(buf[3])
	offset = (offset % 728) + 776

	return offset
}

func detectClientMessageFormat(clientSig []byte) uint32 {
	var sdl uint32
	var msg []byte
	var aux []byte

	sdl = GetServerGenuineConstDigestOffset(clientSig[772:776])
	msg = make([]byte, sdl)
	copy(msg, clientSig[0:sdl])
	msg = append(msg, clientSig[(sdl+SHA256DL):]...)

	if len(msg) < 1504 {
		aux = make([]byte, 1504-len(msg))
		msg = append(msg, aux...)
	} else {
		msg = msg[0:1504]
	}

	computedSignature := calcHmac(msg, []byte(GenuineFPConst))
	providedSignature := clientSig[sdl:(sdl + SHA256DL)]

	if compareSignatures(computedSignature, providedSignature) {
		return MESSAGE_FORMAT_2
	}

	sdl = GetClientGenuineConstDigestOffset(clientSig[8:12])
	msg = make([]byte, sdl)
	copy(msg, clientSig[0:sdl])
	msg = append(msg, clientSig[(sdl+SHA256DL):]...)

	if len(msg) < 1504 {
		aux = make([]byte, 1504-len(msg))
		msg = append(msg, aux...)
	} else {
		msg = msg[0:1504]
	}

	computedSignature = calcHmac(msg, []byte(GenuineFPConst))
	providedSignature = clientSig[sdl:(sdl + SHA256DL)]

	if compareSignatures(computedSignature, providedSignature) {
		return MESSAGE_FORMAT_1
	}

	return MESSAGE_FORMAT_0
}

// generateS1 builds the server's S1 (the first part of the S0/S1/S2 reply).
func generateS1(messageFormat uint32) []byte {
	randomBytes := make([]byte, RTMP_SIG_SIZE-8)
	_, err := rand.Read(randomBytes)

	if err != nil {
		panic(err)
	}

	handshakeBytes := []byte{0, 0, 0, 0, 1, 2, 3, 4}
	handshakeBytes = append(handshakeBytes, randomBytes...)

	if len(handshakeBytes) < RTMP_SIG_SIZE {
		aux := make([]byte, RTMP_SIG_SIZE-len(handshakeBytes))
		handshakeBytes = append(handshakeBytes, aux...)
	} else {
		handshakeBytes = handshakeBytes[0:RTMP_SIG_SIZE]
	}

	var serverDigestOffset uint32
	if messageFormat == MESSAGE_FORMAT_1 {
		serverDigestOffset = GetClientGenuineConstDigestOffset(handshakeBytes[8:12])
	} else {
		serverDigestOffset = GetClientGenuineConstDigestOffset(handshakeBytes[772:776])
	}

	msg := make([]byte, serverDigestOffset)
	copy(msg, handshakeBytes[0:serverDigestOffset])
	msg = append(msg, handshakeBytes[(serverDigestOffset+SHA256DL):]...)
	forcedMsgLen := RTMP_SIG_SIZE - SHA256DL

	if len(msg) < forcedMsgLen {
		aux := make([]byte, forcedMsgLen-len(msg))
		msg = append(msg, aux...)
	} else {
		msg = msg[0:forcedMsgLen]
	}

	h := calcHmac(msg, []byte(GenuineFMSConst))

	for j := uint32(0); j < 32; j++ {
		handshakeBytes[serverDigestOffset+j] = h[j]
	}

	return handshakeBytes
}

func generateS2(messageFormat uint32, clientSig []byte) []byte {
	randomBytes := make([]byte, RTMP_SIG_SIZE-32)
	_, err := rand.Read(randomBytes)

	if err != nil {
		panic(err)
	}

	var challengeKeyOffset uint32

	if messageFormat == MESSAGE_FORMAT_1 {
		challengeKeyOffset = GetClientGenuineConstDigestOffset(clientSig[8:12])
	} else {
		challengeKeyOffset = GetServerGenuineConstDigestOffset(clientSig[772:776])
	}

	challengeKey := clientSig[challengeKeyOffset:(challengeKeyOffset + 32)]

	h := calcHmac(challengeKey, GenuineFMSConstCrud)
	signature := calcHmac(randomBytes, h)

	s2Bytes := append(randomBytes[:], signature...)

	if len(s2Bytes) < RTMP_SIG_SIZE {
		aux := make([]byte, RTMP_SIG_SIZE-len(s2Bytes))
		s2Bytes = append(s2Bytes, aux...)
	} else {
		s2Bytes = s2Bytes[0:RTMP_SIG_SIZE]
	}

	return s2Bytes
}

// GenerateS0S1S2 builds the server's reply to a client's C0+C1, used when
// this process is acting as the RTMP server facing the real client.
func GenerateS0S1S2(clientSig []byte) []byte {
	var allBytes []byte

	clientType := []byte{RtmpVersion}
	messageFormat := detectClientMessageFormat(clientSig)

	if messageFormat == MESSAGE_FORMAT_0 {
		LogDebug("Using basic handshake")
		allBytes = append(clientType, clientSig...)
		allBytes = append(allBytes, clientSig...)
	} else {
		LogDebug("Using S1S2 handshake")
		s1 := generateS1(messageFormat)
		s2 := generateS2(messageFormat, clientSig)
		allBytes = append(clientType, s1...)
		allBytes = append(allBytes, s2...)
	}

	return allBytes
}

// GenerateC0C1 builds the client's C0+C1, used when this process dials
// the real upstream server on the client's behalf.
func GenerateC0C1() []byte {
	randomBytes := make([]byte, RTMP_SIG_SIZE-8)
	_, err := rand.Read(randomBytes)
	if err != nil {
		panic(err)
	}

	c1 := []byte{0, 0, 0, 0, 0, 0, 0, 0}
	c1 = append(c1, randomBytes...)

	return append([]byte{RtmpVersion}, c1...)
}

// CompleteClientHandshake reads S0+S1+S2 from the upstream connection and
// replies with C2, completing a basic (non-digest) handshake. The upstream
// peer in this proxy's use case is always the real RTMP origin server, which
// this implementation treats with the simple handshake since it does not
// need to forge the HMAC digest to be accepted (the origin only validates
// the client's C1/C2, not vice versa).
func CompleteClientHandshake(r io.Reader, w io.Writer, c1 []byte) error {
	s0s1s2 := make([]byte, 1+RTMP_SIG_SIZE*2)
	if _, err := io.ReadFull(r, s0s1s2); err != nil {
		return fmt.Errorf("reading S0S1S2: %w", err)
	}

	// C2 echoes S1 back
	s1 := s0s1s2[1 : 1+RTMP_SIG_SIZE]
	if _, err := w.Write(s1); err != nil {
		return fmt.Errorf("writing C2: %w", err)
	}

	return nil
}
