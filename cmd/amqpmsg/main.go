package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	amqp "github.com/vcabbage/amqpmsg"
)

func main() {
	var (
		subject  = flag.String("subject", "", "properties subject")
		to       = flag.String("to", "", "properties to address")
		ttl      = flag.Duration("ttl", 0, "header time to live")
		durable  = flag.Bool("durable", false, "header durable flag")
		sequence = flag.Bool("sequence", false, "send body parts as amqp-sequence sections instead of data")
		limit    = flag.Int64("limit", 1<<20, "bytes the message and its clone may hold")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [body part...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*subject, *to, *ttl, *durable, *sequence, *limit, flag.Args()); err != nil {
		fmt.Printf("Error: %+v\n", err)
		os.Exit(1)
	}
}

func run(subject, to string, ttl time.Duration, durable, sequence bool, limit int64, parts []string) error {
	alloc := amqp.NewLimitAllocator(limit)

	msg, err := amqp.NewMessage(amqp.MessageAllocator(alloc))
	if err != nil {
		return err
	}
	defer msg.Destroy()

	if ttl != 0 || durable {
		err = msg.SetHeader(&amqp.MessageHeader{Durable: durable, Priority: 4, TTL: ttl})
		if err != nil {
			return err
		}
	}
	err = msg.SetProperties(&amqp.MessageProperties{
		MessageID:    uuid.New(),
		To:           to,
		Subject:      subject,
		CreationTime: time.Now(),
	})
	if err != nil {
		return err
	}

	for _, p := range parts {
		if sequence {
			err = msg.AddBodyAMQPSequence(amqp.NewValue([]interface{}{p}))
		} else {
			err = msg.AddBodyAMQPData([]byte(p))
		}
		if err != nil {
			return err
		}
	}

	clone, err := msg.Clone()
	if err != nil {
		return err
	}
	defer clone.Destroy()

	bin, err := clone.MarshalBinary()
	if err != nil {
		return err
	}
	fmt.Printf("Body: %s, %d bytes in use\n", clone.BodyKind(), alloc.InUse())
	fmt.Print(hex.Dump(bin))

	decoded, err := amqp.NewMessage(amqp.MessageAllocator(alloc))
	if err != nil {
		return err
	}
	defer decoded.Destroy()
	if err := decoded.UnmarshalBinary(bin); err != nil {
		return err
	}

	props, err := decoded.Properties()
	if err != nil {
		return err
	}
	p := props.(*amqp.MessageProperties)
	fmt.Printf("Decoded: message-id %v, to %q, subject %q\n", p.MessageID, p.To, p.Subject)

	var body []string
	switch decoded.BodyKind() {
	case amqp.BodyData:
		n, _ := decoded.BodyAMQPDataCount()
		for i := 0; i < n; i++ {
			data, err := decoded.BodyAMQPData(i)
			if err != nil {
				return err
			}
			body = append(body, string(data))
		}
	case amqp.BodySequence:
		n, _ := decoded.BodyAMQPSequenceCount()
		for i := 0; i < n; i++ {
			v, err := decoded.BodyAMQPSequence(i)
			if err != nil {
				return err
			}
			body = append(body, fmt.Sprint(v.(*amqp.AMQPValue).Value))
		}
	}
	fmt.Printf("Body parts: [%s]\n", strings.Join(body, ", "))
	return nil
}
