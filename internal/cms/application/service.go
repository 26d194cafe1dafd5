package application

import (
	"context"
	"io"

	"github.com/venturecrest/angelnet/internal/cms/domain"
	"github.com/venturecrest/angelnet/pkg/storage"
	"github.com/venturecrest/angelnet/pkg/utils"
)

// CMSService 站点内容服务
type CMSService struct {
	team      domain.TeamMemberRepository
	partners  domain.PartnerRepository
	documents domain.DocumentRepository
	files     storage.Storage
}

func NewCMSService(
	team domain.TeamMemberRepository,
	partners domain.PartnerRepository,
	documents domain.DocumentRepository,
	files storage.Storage,
) *CMSService {
	return &CMSService{team: team, partners: partners, documents: documents, files: files}
}

// TeamMemberCommand 团队成员写命令
type TeamMemberCommand struct {
	Name         string
	Title        string
	Bio          string
	PhotoRef     string
	DisplayOrder int
	Published    bool
}

func (s *CMSService) CreateTeamMember(ctx context.Context, cmd TeamMemberCommand) (*domain.TeamMember, error) {
	member := &domain.TeamMember{
		MemberID:     utils.NewID("tm"),
		Name:         cmd.Name,
		Title:        cmd.Title,
		Bio:          cmd.Bio,
		PhotoRef:     cmd.PhotoRef,
		DisplayOrder: cmd.DisplayOrder,
		Published:    cmd.Published,
	}
	if err := s.team.Save(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *CMSService) UpdateTeamMember(ctx context.Context, memberID string, cmd TeamMemberCommand) (*domain.TeamMember, error) {
	member, err := s.team.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, domain.ErrTeamMemberNotFound
	}

	member.Name = cmd.Name
	member.Title = cmd.Title
	member.Bio = cmd.Bio
	if cmd.PhotoRef != "" {
		member.PhotoRef = cmd.PhotoRef
	}
	member.DisplayOrder = cmd.DisplayOrder
	member.Published = cmd.Published

	if err := s.team.Save(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

func (s *CMSService) DeleteTeamMember(ctx context.Context, memberID string) error {
	member, err := s.team.Get(ctx, memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return domain.ErrTeamMemberNotFound
	}
	return s.team.Delete(ctx, memberID)
}

func (s *CMSService) ListTeamMembers(ctx context.Context, publishedOnly bool) ([]*domain.TeamMember, error) {
	return s.team.List(ctx, publishedOnly)
}

// PartnerCommand 合作伙伴写命令
type PartnerCommand struct {
	Name         string
	Kind         domain.PartnerKind
	LogoRef      string
	SiteURL      string
	DisplayOrder int
	Published    bool
}

func (s *CMSService) CreatePartner(ctx context.Context, cmd PartnerCommand) (*domain.Partner, error) {
	if !domain.ValidPartnerKind(cmd.Kind) {
		return nil, domain.ErrInvalidPartnerKind
	}

	partner := &domain.Partner{
		PartnerID:    utils.NewID("ptn"),
		Name:         cmd.Name,
		Kind:         cmd.Kind,
		LogoRef:      cmd.LogoRef,
		SiteURL:      cmd.SiteURL,
		DisplayOrder: cmd.DisplayOrder,
		Published:    cmd.Published,
	}
	if err := s.partners.Save(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *CMSService) UpdatePartner(ctx context.Context, partnerID string, cmd PartnerCommand) (*domain.Partner, error) {
	if !domain.ValidPartnerKind(cmd.Kind) {
		return nil, domain.ErrInvalidPartnerKind
	}

	partner, err := s.partners.Get(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, domain.ErrPartnerNotFound
	}

	partner.Name = cmd.Name
	partner.Kind = cmd.Kind
	if cmd.LogoRef != "" {
		partner.LogoRef = cmd.LogoRef
	}
	partner.SiteURL = cmd.SiteURL
	partner.DisplayOrder = cmd.DisplayOrder
	partner.Published = cmd.Published

	if err := s.partners.Save(ctx, partner); err != nil {
		return nil, err
	}
	return partner, nil
}

func (s *CMSService) DeletePartner(ctx context.Context, partnerID string) error {
	partner, err := s.partners.Get(ctx, partnerID)
	if err != nil {
		return err
	}
	if partner == nil {
		return domain.ErrPartnerNotFound
	}
	return s.partners.Delete(ctx, partnerID)
}

func (s *CMSService) ListPartners(ctx context.Context, publishedOnly bool) ([]*domain.Partner, error) {
	return s.partners.List(ctx, publishedOnly)
}

// UploadDocument 保存上传文件并登记元数据
func (s *CMSService) UploadDocument(ctx context.Context, uploadedBy, name, mimeType string, size int64, file io.Reader) (*domain.ContentDocument, error) {
	ref, err := s.files.Save(ctx, "cms", name, file)
	if err != nil {
		return nil, err
	}

	document := &domain.ContentDocument{
		DocumentID: utils.NewID("doc"),
		Name:       name,
		FileRef:    ref,
		MimeType:   mimeType,
		Size:       size,
		UploadedBy: uploadedBy,
	}
	if err := s.documents.Save(ctx, document); err != nil {
		return nil, err
	}
	return document, nil
}

func (s *CMSService) ListDocuments(ctx context.Context, page, pageSize int) ([]*domain.ContentDocument, *utils.Pagination, error) {
	p := utils.NewPagination(page, pageSize, 0)
	documents, total, err := s.documents.List(ctx, p.Limit(), p.Offset())
	if err != nil {
		return nil, nil, err
	}
	return documents, utils.NewPagination(p.Page, p.PageSize, total), nil
}

func (s *CMSService) DeleteDocument(ctx context.Context, documentID string) error {
	document, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return err
	}
	if document == nil {
		return domain.ErrDocumentNotFound
	}
	if err := s.documents.Delete(ctx, documentID); err != nil {
		return err
	}
	// 元数据已删，文件删除失败不回滚
	_ = s.files.Delete(ctx, document.FileRef)
	return nil
}

// OpenDocument 读取文档内容
func (s *CMSService) OpenDocument(ctx context.Context, documentID string) (io.ReadCloser, *domain.ContentDocument, error) {
	document, err := s.documents.Get(ctx, documentID)
	if err != nil {
		return nil, nil, err
	}
	if document == nil {
		return nil, nil, domain.ErrDocumentNotFound
	}

	f, err := s.files.Open(ctx, document.FileRef)
	if err != nil {
		return nil, nil, err
	}
	return f, document, nil
}
