// network/connection.go
package network

import (
	"encoding/binary"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type Packet struct {
	MsgID  uint16
	Data   []byte
	Length uint16
}

type Connection interface {
	Send(msgID uint16, data []byte) error
	Enqueue(msgID uint16, data []byte) bool
	Close() error
	RemoteAddr() net.Addr
	SetHeartbeat(interval time.Duration)
	ReadPacket() (*Packet, error)
}

// ErrSendQueueFull 出站队列满，消息被丢弃
var ErrSendQueueFull = errors.New("send queue full")

const sendQueueSize = 64

type WSConnection struct {
	conn      *websocket.Conn
	sendMutex sync.Mutex
	heartbeat time.Duration

	sendChan  chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func NewWSConnection(conn *websocket.Conn) *WSConnection {
	c := &WSConnection{
		conn:     conn,
		sendChan: make(chan []byte, sendQueueSize),
		closed:   make(chan struct{}),
	}
	go c.writePump()
	return c
}

// frame 封包: 2字节消息ID + 2字节数据长度 + 数据
func frame(msgID uint16, data []byte) []byte {
	packet := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(packet[0:2], msgID)
	binary.BigEndian.PutUint16(packet[2:4], uint16(len(data)))
	copy(packet[4:], data)
	return packet
}

// Send 同步写，调用方承担阻塞
func (c *WSConnection) Send(msgID uint16, data []byte) error {
	c.sendMutex.Lock()
	defer c.sendMutex.Unlock()
	return c.conn.WriteMessage(websocket.BinaryMessage, frame(msgID, data))
}

// Enqueue 非阻塞写入出站队列，由 writePump 异步发送。
// 队列满说明对端消费过慢，丢弃该消息并返回 false；
// 广播路径用它，慢客户端不能拖住房间 tick。
func (c *WSConnection) Enqueue(msgID uint16, data []byte) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.sendChan <- frame(msgID, data):
		return true
	default:
		return false
	}
}

func (c *WSConnection) writePump() {
	for {
		select {
		case packet := <-c.sendChan:
			c.sendMutex.Lock()
			err := c.conn.WriteMessage(websocket.BinaryMessage, packet)
			c.sendMutex.Unlock()
			if err != nil {
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *WSConnection) ReadPacket() (*Packet, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	if len(data) < 4 {
		return nil, io.ErrShortBuffer
	}

	msgID := binary.BigEndian.Uint16(data[0:2])
	length := binary.BigEndian.Uint16(data[2:4])

	if len(data) < int(4+length) {
		return nil, io.ErrShortBuffer
	}

	if c.heartbeat > 0 {
		c.conn.SetReadDeadline(time.Now().Add(c.heartbeat * 2))
	}

	return &Packet{
		MsgID:  msgID,
		Length: length,
		Data:   data[4 : 4+length],
	}, nil
}

func (c *WSConnection) SetHeartbeat(interval time.Duration) {
	c.heartbeat = interval
	c.conn.SetReadDeadline(time.Now().Add(interval * 2))
}

func (c *WSConnection) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}

func (c *WSConnection) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}
