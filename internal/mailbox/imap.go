package mailbox

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"golang.org/x/oauth2"

	"zlatko/internal/config"
	"zlatko/internal/model"
)

// IMAPProvider reads a mailbox over IMAP, authenticating with the OAuth
// access token through XOAUTH2.
type IMAPProvider struct {
	oauth   *oauth2.Config
	addr    string
	mailbox string
}

func NewIMAPProvider(oauthCfg *oauth2.Config, cfg config.IMAPConfig) *IMAPProvider {
	mailbox := cfg.Mailbox
	if mailbox == "" {
		mailbox = "INBOX"
	}
	return &IMAPProvider{
		oauth:   oauthCfg,
		addr:    fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		mailbox: mailbox,
	}
}

func (p *IMAPProvider) Name() string {
	return model.ProviderIMAP
}

func (p *IMAPProvider) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	return refresh(ctx, p.oauth, refreshToken)
}

func (p *IMAPProvider) Open(ctx context.Context, account Account) (Session, error) {
	if account.Address == "" {
		return nil, fmt.Errorf("imap requires the mailbox address")
	}

	c, err := client.DialTLS(p.addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Authenticate(&xoauth2Client{username: account.Address, token: account.AccessToken}); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to authenticate to IMAP server: %w", err)
	}

	status, err := c.Select(p.mailbox, true)
	if err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to select %s: %w", p.mailbox, err)
	}

	gmailExt, err := c.Support(gmailExtension)
	if err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to read IMAP capabilities: %w", err)
	}

	return &imapSession{
		client:      c,
		address:     account.Address,
		mailbox:     p.mailbox,
		uidValidity: status.UidValidity,
		gmailIDs:    gmailExt,
		uids:        make(map[string]uint32),
	}, nil
}

// xoauth2Client implements the SASL client side of Google's XOAUTH2 mechanism
type xoauth2Client struct {
	username string
	token    string
}

func (a *xoauth2Client) Start() (string, []byte, error) {
	ir := fmt.Sprintf("user=%s\x01auth=Bearer %s\x01\x01", a.username, a.token)
	return "XOAUTH2", []byte(ir), nil
}

// Next answers the error challenge with an empty response so the server
// completes the exchange with a tagged NO.
func (a *xoauth2Client) Next(challenge []byte) ([]byte, error) {
	return []byte{}, nil
}

const (
	gmailExtension = "X-GM-EXT-1"
	fetchGmailID   = imap.FetchItem("X-GM-MSGID")
)

// imapSession hands out ids that stay stable across mailboxes and
// UIDVALIDITY resets. On Gmail the id is X-GM-MSGID in lowercase hex, the
// same string the Gmail API reports for the message. Elsewhere it is
// "<uidvalidity>:<mailbox>:<uid>".
type imapSession struct {
	client      *client.Client
	address     string
	mailbox     string
	uidValidity uint32
	gmailIDs    bool

	// ids handed out by ListMessages, mapped back to their uid
	uids map[string]uint32
}

func (s *imapSession) ListMessages(ctx context.Context, query string, max int64) ([]string, error) {
	criteria, err := searchCriteria(query)
	if err != nil {
		return nil, err
	}

	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	// higher uids are newer
	sort.Slice(uids, func(i, j int) bool { return uids[i] > uids[j] })
	if max > 0 && int64(len(uids)) > max {
		uids = uids[:max]
	}

	if len(uids) == 0 {
		return nil, nil
	}

	if s.gmailIDs {
		return s.gmailMessageIDs(uids)
	}

	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		id := compositeID(s.uidValidity, s.mailbox, uid)
		s.uids[id] = uid
		ids = append(ids, id)
	}
	return ids, nil
}

// gmailMessageIDs fetches X-GM-MSGID for the given uids, keeping their order
func (s *imapSession) gmailMessageIDs(uids []uint32) ([]string, error) {
	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqset, []imap.FetchItem{imap.FetchUid, fetchGmailID}, messages)
	}()

	byUID := make(map[uint32]string, len(uids))
	var parseErr error
	for msg := range messages {
		id, err := gmailMessageID(msg.Items[fetchGmailID])
		if err != nil {
			if parseErr == nil {
				parseErr = fmt.Errorf("message uid %d: %w", msg.Uid, err)
			}
			continue
		}
		byUID[msg.Uid] = id
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message ids: %w", err)
	}
	if parseErr != nil {
		return nil, parseErr
	}

	ids := make([]string, 0, len(uids))
	for _, uid := range uids {
		id, ok := byUID[uid]
		if !ok {
			continue
		}
		s.uids[id] = uid
		ids = append(ids, id)
	}
	return ids, nil
}

// resolveUID maps an id back to the uid in the selected mailbox
func (s *imapSession) resolveUID(id string) (uint32, error) {
	if uid, ok := s.uids[id]; ok {
		return uid, nil
	}
	validity, mailbox, uid, err := parseCompositeID(id)
	if err != nil {
		return 0, fmt.Errorf("unknown imap message id %q", id)
	}
	if validity != s.uidValidity || mailbox != s.mailbox {
		return 0, fmt.Errorf("imap message id %q belongs to another mailbox state", id)
	}
	return uid, nil
}

func compositeID(validity uint32, mailbox string, uid uint32) string {
	return fmt.Sprintf("%d:%s:%d", validity, mailbox, uid)
}

func parseCompositeID(id string) (validity uint32, mailbox string, uid uint32, err error) {
	first := strings.Index(id, ":")
	last := strings.LastIndex(id, ":")
	if first < 0 || first == last {
		return 0, "", 0, fmt.Errorf("malformed id %q", id)
	}
	v, err := strconv.ParseUint(id[:first], 10, 32)
	if err != nil {
		return 0, "", 0, err
	}
	u, err := strconv.ParseUint(id[last+1:], 10, 32)
	if err != nil {
		return 0, "", 0, err
	}
	return uint32(v), id[first+1 : last], uint32(u), nil
}

// gmailMessageID renders a raw X-GM-MSGID fetch value as lowercase hex
func gmailMessageID(v interface{}) (string, error) {
	if v == nil {
		return "", fmt.Errorf("missing %s", fetchGmailID)
	}
	n, err := strconv.ParseUint(fmt.Sprint(v), 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid %s %v: %w", fetchGmailID, v, err)
	}
	return strconv.FormatUint(n, 16), nil
}

func (s *imapSession) GetMessage(ctx context.Context, id string) (*Message, error) {
	uid, err := s.resolveUID(id)
	if err != nil {
		return nil, err
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchUid, section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)
	go func() {
		done <- s.client.UidFetch(seqset, items, messages)
	}()

	var raw []byte
	for msg := range messages {
		if r := msg.GetBody(section); r != nil {
			raw, err = io.ReadAll(r)
			if err != nil {
				return nil, fmt.Errorf("failed to read message %s: %w", id, err)
			}
		}
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch message %s: %w", id, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("message %s not found", id)
	}

	return parseRFC822(id, raw)
}

func (s *imapSession) Address(ctx context.Context) (string, error) {
	return s.address, nil
}

func (s *imapSession) Close() error {
	return s.client.Logout()
}

// searchCriteria translates "from:a OR to:b" into nested IMAP OR criteria
func searchCriteria(query string) (*imap.SearchCriteria, error) {
	var terms []*imap.SearchCriteria
	for _, token := range strings.Split(query, " OR ") {
		key, value, ok := strings.Cut(strings.TrimSpace(token), ":")
		if !ok || value == "" {
			return nil, fmt.Errorf("unsupported query term %q", token)
		}

		c := imap.NewSearchCriteria()
		switch strings.ToLower(key) {
		case "from":
			c.Header.Add("From", value)
		case "to":
			c.Header.Add("To", value)
		default:
			return nil, fmt.Errorf("unsupported query term %q", token)
		}
		terms = append(terms, c)
	}

	result := terms[0]
	for _, next := range terms[1:] {
		or := imap.NewSearchCriteria()
		or.Or = [][2]*imap.SearchCriteria{{result, next}}
		result = or
	}
	return result, nil
}

func parseRFC822(id string, raw []byte) (*Message, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return nil, fmt.Errorf("failed to parse message %s: %w", id, err)
	}

	out := &Message{ID: id}
	fields := entity.Header.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		out.Headers = append(out.Headers, Header{Name: fields.Key(), Value: value})
	}
	if refs, _ := out.Header("References"); len(strings.Fields(refs)) > 0 {
		out.ThreadID = strings.Fields(refs)[0]
	} else if msgID, ok := out.Header("Message-Id"); ok {
		out.ThreadID = strings.TrimSpace(msgID)
	}

	out.Payload, err = entityPart(entity)
	if err != nil {
		return nil, fmt.Errorf("failed to parse message %s: %w", id, err)
	}
	return out, nil
}

func entityPart(entity *message.Entity) (*Part, error) {
	mediaType, _, _ := entity.Header.ContentType()
	part := &Part{MimeType: mediaType}

	if mr := entity.MultipartReader(); mr != nil {
		for {
			child, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil && !message.IsUnknownCharset(err) {
				return nil, fmt.Errorf("failed to read part: %w", err)
			}
			childPart, err := entityPart(child)
			if err != nil {
				return nil, err
			}
			part.Parts = append(part.Parts, childPart)
		}
		return part, nil
	}

	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read part body: %w", err)
	}
	part.Data = base64.URLEncoding.EncodeToString(body)
	return part, nil
}
